// Package modelio persists a trained model. The fitted feature Transform
// and the Forest are serialized together as one versioned unit, because a
// model paired with a transform it was not trained against produces
// invalid predictions.
package modelio

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/sells-group/review-audit/internal/feature"
	"github.com/sells-group/review-audit/internal/forest"
)

// formatVersion is the current bundle payload version. Bump on any
// incompatible change to the encoded structures.
const formatVersion byte = 1

// ErrUnknownVersion is returned when a payload's version byte is not
// recognized.
var ErrUnknownVersion = eris.New("modelio: unknown bundle format version")

// Bundle owns a fitted transform and trained forest as one unit.
type Bundle struct {
	ID        string             `msgpack:"id"`
	CreatedAt time.Time          `msgpack:"created_at"`
	Transform *feature.Transform `msgpack:"transform"`
	Forest    *forest.Forest     `msgpack:"forest"`
}

// New creates a Bundle with a fresh ID.
func New(tr *feature.Transform, f *forest.Forest) *Bundle {
	return &Bundle{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Transform: tr,
		Forest:    f,
	}
}

// Encode serializes the bundle: a leading format-version byte followed by
// the msgpack payload.
func (b *Bundle) Encode() ([]byte, error) {
	if b.Transform == nil || b.Forest == nil {
		return nil, eris.New("modelio: bundle must hold both transform and forest")
	}
	payload, err := msgpack.Marshal(b)
	if err != nil {
		return nil, eris.Wrap(err, "modelio: encode bundle")
	}
	return append([]byte{formatVersion}, payload...), nil
}

// Decode deserializes a bundle produced by Encode.
func Decode(data []byte) (*Bundle, error) {
	if len(data) < 2 {
		return nil, eris.New("modelio: bundle payload too short")
	}
	if data[0] != formatVersion {
		return nil, eris.Wrapf(ErrUnknownVersion, "version %d", data[0])
	}

	var b Bundle
	if err := msgpack.Unmarshal(data[1:], &b); err != nil {
		return nil, eris.Wrap(err, "modelio: decode bundle")
	}
	if b.Transform == nil || b.Forest == nil {
		return nil, eris.New("modelio: bundle missing transform or forest")
	}
	return &b, nil
}

// SaveFile writes the encoded bundle to path.
func (b *Bundle) SaveFile(path string) error {
	data, err := b.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "modelio: write %s", path)
	}
	return nil
}

// LoadFile reads and decodes a bundle from path.
func LoadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "modelio: read %s", path)
	}
	return Decode(data)
}
