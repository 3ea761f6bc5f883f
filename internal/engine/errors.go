package engine

import (
	"errors"
	"fmt"

	"github.com/petems/keyclack/internal/soundpack"
)

// LoadErrorKind classifies why a soundpack switch failed
type LoadErrorKind int

const (
	ConfigMissing LoadErrorKind = iota
	ConfigMalformed
	AudioMissing
	AudioUndecodable
	WrongClass
)

var (
	ErrConfigMissing    = errors.New("soundpack config missing")
	ErrConfigMalformed  = errors.New("soundpack config malformed")
	ErrAudioMissing     = errors.New("soundpack audio missing")
	ErrAudioUndecodable = errors.New("soundpack audio undecodable")
	ErrWrongClass       = errors.New("soundpack is for another device class")
)

func (k LoadErrorKind) sentinel() error {
	switch k {
	case ConfigMissing:
		return ErrConfigMissing
	case ConfigMalformed:
		return ErrConfigMalformed
	case AudioMissing:
		return ErrAudioMissing
	case AudioUndecodable:
		return ErrAudioUndecodable
	default:
		return ErrWrongClass
	}
}

func (k LoadErrorKind) String() string {
	return k.sentinel().Error()
}

// LoadError is returned by LoadSoundpack. The engine keeps its previous
// state whenever one is returned.
type LoadError struct {
	Class       DeviceClass
	SoundpackID string
	Kind        LoadErrorKind
	Err         error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load %s soundpack %q: %s", e.Class, e.SoundpackID, e.Kind)
	}
	return fmt.Sprintf("load %s soundpack %q: %s: %v", e.Class, e.SoundpackID, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's Kind
func (e *LoadError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// classify maps soundpack package errors onto a LoadErrorKind
func classify(err error) LoadErrorKind {
	switch {
	case errors.Is(err, soundpack.ErrNoConfig):
		return ConfigMissing
	case errors.Is(err, soundpack.ErrSourceMissing):
		return AudioMissing
	case errors.Is(err, soundpack.ErrDecode),
		errors.Is(err, soundpack.ErrUnsupportedFormat),
		errors.Is(err, soundpack.ErrSourceTooLarge):
		return AudioUndecodable
	default:
		return ConfigMalformed
	}
}
