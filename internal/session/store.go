package session

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Driver interface {
	Exists() (bool, error)
	Write(s Session) error
	Read() (Session, error)
}

// NewDriver picks a driver by kind: "yaml", "json" or "diskv". For diskv,
// path is the directory and name selects the session inside it. An empty kind
// is guessed from the file extension.
func NewDriver(kind, path, name string) (Driver, error) {
	if kind == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			kind = "json"
		default:
			kind = "yaml"
		}
	}

	switch kind {
	case "yaml":
		return NewYAML(path), nil
	case "json":
		return NewJSON(path), nil
	case "diskv":
		if name == "" {
			name = "default"
		}
		return NewDiskV(path, name), nil
	default:
		return nil, fmt.Errorf("unknown session driver %q", kind)
	}
}

func NewStore(driver Driver) (Store, error) {
	exists, err := driver.Exists()
	if err != nil {
		return Store{}, err
	}
	if !exists {
		if err := driver.Write(Session{Windows: []Record{}}); err != nil {
			return Store{}, err
		}
	}

	return Store{
		driver: driver,
	}, nil
}

type Store struct {
	driver Driver
}

// Load reads the session and normalizes it.
func (s Store) Load() (Session, error) {
	sess, err := s.driver.Read()
	if err != nil {
		return Session{}, err
	}
	return Normalize(sess), nil
}

func (s Store) Save(sess Session) error {
	return s.driver.Write(sess)
}

func (s Store) Update(fn func(sess Session) (Session, error)) error {
	sess, err := s.Load()
	if err != nil {
		return err
	}

	sess, err = fn(sess)
	if err != nil {
		return err
	}

	return s.driver.Write(sess)
}
