package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/ItsNotGoodName/x-deskwm/internal/core"
	"github.com/peterbourgon/diskv/v3"
	"gopkg.in/yaml.v3"
)

func NewYAML(filePath string) YAML {
	return YAML{
		filePath: filePath,
	}
}

type YAML struct {
	filePath string
}

// Exists implements Driver.
func (y YAML) Exists() (bool, error) {
	return core.FileExists(y.filePath)
}

func (y YAML) Read() (Session, error) {
	file, err := os.Open(y.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, err
	}
	defer file.Close()

	var s Session
	if err := yaml.NewDecoder(file).Decode(&s); err != nil {
		return Session{}, fmt.Errorf("decode %s: %w", y.filePath, err)
	}
	return s, nil
}

func (y YAML) Write(s Session) error {
	return writeAtomic(y.filePath, func(file *os.File) error {
		return yaml.NewEncoder(file).Encode(s)
	})
}

func NewJSON(filePath string) JSON {
	return JSON{
		filePath: filePath,
	}
}

type JSON struct {
	filePath string
}

// Exists implements Driver.
func (j JSON) Exists() (bool, error) {
	return core.FileExists(j.filePath)
}

func (j JSON) Read() (Session, error) {
	file, err := os.Open(j.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, err
	}
	defer file.Close()

	var s Session
	if err := json.NewDecoder(file).Decode(&s); err != nil {
		return Session{}, fmt.Errorf("decode %s: %w", j.filePath, err)
	}
	return s, nil
}

func (j JSON) Write(s Session) error {
	return writeAtomic(j.filePath, func(file *os.File) error {
		enc := json.NewEncoder(file)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	})
}

func writeAtomic(filePath string, encode func(file *os.File) error) error {
	filePathTmp := filePath + ".tmp"
	file, err := os.OpenFile(filePathTmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if err := encode(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	return os.Rename(filePathTmp, filePath)
}

// NewDiskV keeps many named sessions in one directory. Each session is a JSON
// value under its name.
func NewDiskV(basePath, name string) DiskV {
	return DiskV{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 1024 * 1024,
		}),
		name: name,
	}
}

type DiskV struct {
	d    *diskv.Diskv
	name string
}

// Exists implements Driver.
func (d DiskV) Exists() (bool, error) {
	return d.d.Has(d.name), nil
}

func (d DiskV) Read() (Session, error) {
	if !d.d.Has(d.name) {
		return Session{}, nil
	}

	b, err := d.d.Read(d.name)
	if err != nil {
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("decode session %s: %w", d.name, err)
	}
	return s, nil
}

func (d DiskV) Write(s Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return d.d.Write(d.name, b)
}

// Names lists every session stored next to this one.
func (d DiskV) Names() []string {
	var names []string
	for key := range d.d.Keys(nil) {
		names = append(names, key)
	}
	slices.Sort(names)
	return names
}
