package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/storage"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrUnknownObject is returned when a name is not a pickable object of the project.
var ErrUnknownObject = errors.New("not a pickable object of this project")

// Location is a point position in the project's unit.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Point is one pick.  A nil Transformation means identity.
type Point struct {
	Location       Location       `json:"location"`
	Transformation *[4][4]float64 `json:"transformation_,omitempty"`
	InstanceID     int            `json:"instance_id"`
	Score          float64        `json:"score"`
}

// UnmarshalJSON applies the default score of 1 when absent.
func (p *Point) UnmarshalJSON(data []byte) error {
	type point Point
	pt := point{Score: 1}
	if err := json.Unmarshal(data, &pt); err != nil {
		return err
	}
	*p = Point(pt)
	return nil
}

// PicksFile is the stored record of a pick set.
type PicksFile struct {
	PickableObjectName string   `json:"pickable_object_name"`
	UserID             string   `json:"user_id"`
	SessionID          string   `json:"session_id"`
	RunName            string   `json:"run_name,omitempty"`
	VoxelSpacing       *float64 `json:"voxel_spacing,omitempty"`
	Unit               string   `json:"unit"`
	TrustOrientation   bool     `json:"trust_orientation"`
	Points             []Point  `json:"points"`
}

const picksFileSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"pickable_object_name": {"type": "string"},
		"user_id": {"type": "string"},
		"session_id": {"type": "string"},
		"run_name": {"type": ["string", "null"]},
		"voxel_spacing": {"type": ["number", "null"], "exclusiveMinimum": 0},
		"unit": {"type": "string", "minLength": 1},
		"trust_orientation": {"type": "boolean"},
		"points": {
			"type": ["array", "null"],
			"items": {"$ref": "#/$defs/point"}
		}
	},
	"required": ["points"],
	"additionalProperties": false,
	"$defs": {
		"point": {
			"type": "object",
			"properties": {
				"location": {
					"type": "object",
					"properties": {
						"x": {"type": "number"},
						"y": {"type": "number"},
						"z": {"type": "number"}
					},
					"required": ["x", "y", "z"],
					"additionalProperties": false
				},
				"transformation_": {
					"type": ["array", "null"],
					"items": {
						"type": "array",
						"items": {"type": "number"},
						"minItems": 4,
						"maxItems": 4
					},
					"minItems": 4,
					"maxItems": 4
				},
				"instance_id": {"type": "integer"},
				"score": {"type": "number"}
			},
			"required": ["location"],
			"additionalProperties": false
		}
	}
}`

var picksSchema = jsonschema.MustCompileString("picks.schema.json", picksFileSchema)

// ParsePicksFile validates a JSON pick set against the picks schema and
// decodes it, applying defaults for unit, trust_orientation and score.
func ParsePicksFile(data []byte) (*PicksFile, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("picks are not valid JSON: %v", err)
	}
	if err := picksSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("picks fail validation: %v", err)
	}
	pf := PicksFile{Unit: "angstrom", TrustOrientation: true}
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("unable to decode picks: %v", err)
	}
	if pf.Points == nil {
		pf.Points = []Point{}
	}
	return &pf, nil
}

// SetIdentity fills the identity fields, returning an error if the record
// already names a different identity.
func (pf *PicksFile) SetIdentity(object, user, session, run string) error {
	check := func(field, got, expected string) error {
		if got != "" && got != expected {
			return fmt.Errorf("%s %q in picks does not match %q", field, got, expected)
		}
		return nil
	}
	if err := check("pickable_object_name", pf.PickableObjectName, object); err != nil {
		return err
	}
	if err := check("user_id", pf.UserID, user); err != nil {
		return err
	}
	if err := check("session_id", pf.SessionID, session); err != nil {
		return err
	}
	if err := check("run_name", pf.RunName, run); err != nil {
		return err
	}
	pf.PickableObjectName, pf.UserID, pf.SessionID, pf.RunName = object, user, session, run
	return nil
}

// PickSet is a named set of picks owned by a user session.
type PickSet struct {
	run      *Run
	object   string
	user     string
	session  string
	readOnly bool
	store    storage.Store
	key      string
}

func (ps *PickSet) ObjectName() string { return ps.object }
func (ps *PickSet) UserID() string     { return ps.user }
func (ps *PickSet) SessionID() string  { return ps.session }
func (ps *PickSet) ReadOnly() bool     { return ps.readOnly }

func (ps *PickSet) String() string {
	return fmt.Sprintf("picks %q of %s", PicksFilename(ps.object, ps.user, ps.session), ps.run)
}

// Load reads the stored record.  A pick set with no stored record returns
// storage.ErrNotFound.
func (ps *PickSet) Load(ctx context.Context) (*PicksFile, error) {
	data, err := ps.store.Get(ctx, ps.key)
	if err != nil {
		return nil, err
	}
	var pf PicksFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("stored %s is corrupt: %v", ps, err)
	}
	if pf.Points == nil {
		pf.Points = []Point{}
	}
	return &pf, nil
}

// Store persists the record, replacing any existing one.
func (ps *PickSet) Store(ctx context.Context, pf *PicksFile) error {
	if ps.readOnly {
		return copick.ReadOnlyf("%s is read-only", ps)
	}
	data, err := json.Marshal(pf)
	if err != nil {
		return err
	}
	return ps.store.Put(ctx, ps.key, data)
}

// NewPicks returns a handle for a pick set in the overlay, which is created on
// the first Store.
func (r *Run) NewPicks(object, user, session string) (*PickSet, error) {
	if err := checkName("user id", user); err != nil {
		return nil, err
	}
	if err := checkName("session id", session); err != nil {
		return nil, err
	}
	if err := checkName("object name", object); err != nil {
		return nil, err
	}
	if !r.root.ObjectAllowed(object) {
		return nil, fmt.Errorf("object %q: %w", object, ErrUnknownObject)
	}
	return &PickSet{
		run:     r,
		object:  object,
		user:    user,
		session: session,
		store:   r.root.overlay,
		key:     runPrefix(r.name) + picksDir + PicksFilename(object, user, session),
	}, nil
}

// Picks returns the stored pick sets matching the identity, overlay first.
// An empty object, user or session matches any value.
func (r *Run) Picks(ctx context.Context, object, user, session string) ([]*PickSet, error) {
	var sets []*PickSet
	prefix := runPrefix(r.name) + picksDir
	for _, l := range r.root.layers() {
		children, err := l.store.List(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("unable to list picks of %s in %s: %v", r, l.store, err)
		}
		for _, child := range children {
			if strings.HasSuffix(child, "/") {
				continue
			}
			o, u, s, ok := ParsePicksFilename(child)
			if !ok {
				continue
			}
			if (object != "" && o != object) || (user != "" && u != user) || (session != "" && s != session) {
				continue
			}
			sets = append(sets, &PickSet{
				run:      r,
				object:   o,
				user:     u,
				session:  s,
				readOnly: l.readOnly,
				store:    l.store,
				key:      prefix + child,
			})
		}
	}
	return sets, nil
}
