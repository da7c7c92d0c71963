package zarr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/dustin/go-humanize"
	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/storage"
	"golang.org/x/sync/errgroup"
)

// WriteUint8 writes a C-order uint8 array with the given metadata at the
// array path within store: the .zarray document and every chunk.  Chunks are
// compressed and written concurrently.
func WriteUint8(ctx context.Context, store storage.ChunkStore, arrayPath string, m *Metadata, data []byte) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.DType != Uint8DType {
		return fmt.Errorf("cannot write uint8 data to array of dtype %q", m.DType)
	}
	if len(data) != m.NumVoxels() {
		return fmt.Errorf("data of %d bytes does not match shape %v", len(data), m.Shape)
	}
	timedLog := copick.NewTimeLog()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(copick.NumCPU)
	var numChunks int
	if m.NumVoxels() > 0 {
		grid := m.GridShape()
		index := make([]int, len(grid))
		for {
			chunkIndex := append([]int(nil), index...)
			numChunks++
			g.Go(func() error {
				chunk := extractChunk(data, m.Shape, m.Chunks, chunkIndex)
				compressed, err := compress(m.Compressor, chunk)
				if err != nil {
					return err
				}
				return store.Put(gctx, path.Join(arrayPath, m.ChunkKey(chunkIndex)), compressed)
			})
			if !nextIndex(index, grid) {
				break
			}
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("error writing chunks of array %q: %v", arrayPath, err)
	}

	// metadata last so readers never see an array without its chunks
	zarray, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, path.Join(arrayPath, ".zarray"), zarray); err != nil {
		return err
	}
	timedLog.Infof("Wrote array %q, shape %v, %d chunks, %s", arrayPath, m.Shape, numChunks, humanize.Bytes(uint64(len(data))))
	return nil
}

// ReadMetadata returns the parsed .zarray of the array at arrayPath.
func ReadMetadata(ctx context.Context, store storage.ChunkStore, arrayPath string) (*Metadata, error) {
	data, err := store.Get(ctx, path.Join(arrayPath, ".zarray"))
	if err != nil {
		return nil, err
	}
	return ParseMetadata(data)
}

// ReadUint8 reads a whole uint8 array.  Missing chunks are filled with the
// fill value.
func ReadUint8(ctx context.Context, store storage.ChunkStore, arrayPath string) (*Metadata, []byte, error) {
	m, err := ReadMetadata(ctx, store, arrayPath)
	if err != nil {
		return nil, nil, err
	}
	if m.DType != Uint8DType {
		return nil, nil, fmt.Errorf("array %q has dtype %q, not %q", arrayPath, m.DType, Uint8DType)
	}
	data := make([]byte, m.NumVoxels())
	if m.FillValue != 0 {
		for i := range data {
			data[i] = byte(m.FillValue)
		}
	}
	if len(data) == 0 {
		return m, data, nil
	}
	chunkSize := 1
	for _, c := range m.Chunks {
		chunkSize *= c
	}
	grid := m.GridShape()
	index := make([]int, len(grid))
	for {
		stored, err := store.Get(ctx, path.Join(arrayPath, m.ChunkKey(index)))
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return nil, nil, err
		default:
			chunk, err := decompress(m.Compressor, stored)
			if err != nil {
				return nil, nil, fmt.Errorf("chunk %v of %q: %v", index, arrayPath, err)
			}
			if len(chunk) != chunkSize {
				return nil, nil, fmt.Errorf("chunk %v of %q has %d bytes, expected %d", index, arrayPath, len(chunk), chunkSize)
			}
			insertChunk(data, m.Shape, m.Chunks, index, chunk)
		}
		if !nextIndex(index, grid) {
			break
		}
	}
	return m, data, nil
}

// nextIndex advances index in C order within grid, returning false after the last.
func nextIndex(index, grid []int) bool {
	for i := len(index) - 1; i >= 0; i-- {
		index[i]++
		if index[i] < grid[i] {
			return true
		}
		index[i] = 0
	}
	return false
}

// chunkRuns calls fn for each contiguous run along the last axis of the chunk
// at chunkIndex, with offsets into the full array and into the chunk buffer.
func chunkRuns(shape, chunks, chunkIndex []int, fn func(arrayOff, chunkOff, n int)) {
	ndim := len(shape)
	origin := make([]int, ndim)
	extent := make([]int, ndim)
	for i := range shape {
		origin[i] = chunkIndex[i] * chunks[i]
		extent[i] = min(chunks[i], shape[i]-origin[i])
	}
	arrayStride := make([]int, ndim)
	chunkStride := make([]int, ndim)
	arrayStride[ndim-1], chunkStride[ndim-1] = 1, 1
	for i := ndim - 2; i >= 0; i-- {
		arrayStride[i] = arrayStride[i+1] * shape[i+1]
		chunkStride[i] = chunkStride[i+1] * chunks[i+1]
	}
	pos := make([]int, ndim-1)
	for {
		arrayOff := origin[ndim-1]
		chunkOff := 0
		for i, p := range pos {
			arrayOff += (origin[i] + p) * arrayStride[i]
			chunkOff += p * chunkStride[i]
		}
		fn(arrayOff, chunkOff, extent[ndim-1])
		if !nextIndex(pos, extent[:ndim-1]) {
			return
		}
	}
}

// extractChunk copies one chunk out of the array, zero-padding at the edges.
func extractChunk(data []byte, shape, chunks, chunkIndex []int) []byte {
	size := 1
	for _, c := range chunks {
		size *= c
	}
	buf := make([]byte, size)
	chunkRuns(shape, chunks, chunkIndex, func(arrayOff, chunkOff, n int) {
		copy(buf[chunkOff:chunkOff+n], data[arrayOff:arrayOff+n])
	})
	return buf
}

// insertChunk copies the in-bounds part of a chunk into the array.
func insertChunk(data []byte, shape, chunks, chunkIndex []int, chunk []byte) {
	chunkRuns(shape, chunks, chunkIndex, func(arrayOff, chunkOff, n int) {
		copy(data[arrayOff:arrayOff+n], chunk[chunkOff:chunkOff+n])
	})
}
