package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/salijona/C-AdvDGM/pkg/errors"
)

// Save gob-encodes a fitted transformer or model to a file. The value must
// have exported fields (or implement gob.GobEncoder) for everything that
// needs to survive, including its random-state streams.
func Save(v interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create model file")
	}
	defer file.Close()

	return SaveTo(v, file)
}

// Load gob-decodes a transformer or model from a file into v, which must be
// a pointer to a value of the same concrete type that was saved.
func Load(v interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open model file")
	}
	defer file.Close()

	return LoadFrom(v, file)
}

// SaveTo gob-encodes v to a writer.
func SaveTo(v interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadFrom gob-decodes from a reader into v.
func LoadFrom(v interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
