package motif

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/minio/highwayhash"
	"gopkg.in/yaml.v3"
)

// Registry is an immutable collection of motifs and kit signatures. It is
// safe for concurrent use.
type Registry struct {
	motifs []Motif
	byName map[string]int
	kits   []Kit
	byKit  map[string]int
}

// NewRegistry validates and indexes the given motifs and kits. Motif
// sequences are normalized to upper case. Motif names must be unique and
// every motif named by a kit must exist.
func NewRegistry(motifs []Motif, kits []Kit) (*Registry, error) {
	r := &Registry{
		motifs: make([]Motif, len(motifs)),
		byName: make(map[string]int, len(motifs)),
		kits:   make([]Kit, len(kits)),
		byKit:  make(map[string]int, len(kits)),
	}
	for i, m := range motifs {
		if m.Name == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("motif %d has no name", i))
		}
		if _, ok := r.byName[m.Name]; ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("duplicate motif %s", m.Name))
		}
		seq, err := Normalize(m.Seq)
		if err != nil {
			return nil, errors.E(err, "motif", m.Name)
		}
		m.Seq = seq
		r.motifs[i] = m
		r.byName[m.Name] = i
	}
	for i, k := range kits {
		key := strings.ToUpper(k.ID)
		if key == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("kit %d has no id", i))
		}
		if _, ok := r.byKit[key]; ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("duplicate kit %s", k.ID))
		}
		for _, name := range k.Motifs {
			if _, ok := r.byName[name]; !ok {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("kit %s: unknown motif %s", k.ID, name))
			}
		}
		k.Motifs = append([]string(nil), k.Motifs...)
		r.kits[i] = k
		r.byKit[key] = i
	}
	return r, nil
}

// Motifs returns all motifs in registration order. The caller must not
// modify the returned slice.
func (r *Registry) Motifs() []Motif { return r.motifs }

// Motif looks up a motif by name.
func (r *Registry) Motif(name string) (Motif, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Motif{}, false
	}
	return r.motifs[i], true
}

// Kits returns all kits in registration order. The caller must not modify
// the returned slice.
func (r *Registry) Kits() []Kit { return r.kits }

// Kit looks up a kit by ID, ignoring case. The "SQK-" prefix may be
// omitted.
func (r *Registry) Kit(id string) (Kit, bool) {
	key := strings.ToUpper(id)
	i, ok := r.byKit[key]
	if !ok {
		if i, ok = r.byKit["SQK-"+key]; !ok {
			return Kit{}, false
		}
	}
	return r.kits[i], true
}

// MotifsForKit returns the motifs of the kit's signature. An empty id
// selects every motif in the registry. An unknown kit is a NotExist error.
func (r *Registry) MotifsForKit(id string) ([]Motif, error) {
	if id == "" {
		return r.motifs, nil
	}
	k, ok := r.Kit(id)
	if !ok {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("unknown kit %q (known: %s)", id, strings.Join(r.KitIDs(), ", ")))
	}
	motifs := make([]Motif, len(k.Motifs))
	for i, name := range k.Motifs {
		motifs[i] = r.motifs[r.byName[name]]
	}
	return motifs, nil
}

// Digest returns a fingerprint of the registry's motifs and kit signatures
// as 32 hex digits. Registries with the same contents in the same order have
// the same digest.
func (r *Registry) Digest() string {
	var buf bytes.Buffer
	for _, m := range r.motifs {
		fmt.Fprintf(&buf, "m\t%s\t%s\t%s\n", m.Name, m.Category, m.Seq)
	}
	for _, k := range r.kits {
		fmt.Fprintf(&buf, "k\t%s\t%s\n", k.ID, strings.Join(k.Motifs, ","))
	}
	var zeroKey [highwayhash.Size]byte
	sum := highwayhash.Sum128(buf.Bytes(), zeroKey[:])
	return hex.EncodeToString(sum[:])
}

// KitIDs returns the sorted kit IDs.
func (r *Registry) KitIDs() []string {
	ids := make([]string, len(r.kits))
	for i, k := range r.kits {
		ids[i] = k.ID
	}
	sort.Strings(ids)
	return ids
}

type yamlMotif struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Seq      string `yaml:"seq"`
}

type yamlKit struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description,omitempty"`
	Chemistry   string   `yaml:"chemistry,omitempty"`
	Legacy      bool     `yaml:"legacy,omitempty"`
	Motifs      []string `yaml:"motifs"`
}

type yamlRegistry struct {
	Motifs []yamlMotif `yaml:"motifs"`
	Kits   []yamlKit   `yaml:"kits"`
}

// ParseRegistry parses a YAML registry document of the form
//
//   motifs:
//     - {name: LA_top, category: adapter_top, seq: TTTTTTTTCCTGTAC...}
//   kits:
//     - {id: SQK-LSK114, description: Ligation sequencing, motifs: [LA_top]}
func ParseRegistry(data []byte) (*Registry, error) {
	var doc yamlRegistry
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.E(errors.Invalid, err, "parse motif registry")
	}
	motifs := make([]Motif, len(doc.Motifs))
	for i, m := range doc.Motifs {
		c, err := ParseCategory(m.Category)
		if err != nil {
			return nil, errors.E(err, "motif", m.Name)
		}
		motifs[i] = Motif{Name: m.Name, Category: c, Seq: m.Seq}
	}
	kits := make([]Kit, len(doc.Kits))
	for i, k := range doc.Kits {
		kits[i] = Kit{ID: k.ID, Description: k.Description, Chemistry: k.Chemistry, Legacy: k.Legacy, Motifs: k.Motifs}
	}
	return NewRegistry(motifs, kits)
}

// LoadRegistry reads a YAML registry from path, which may be any path
// supported by grailbio/base/file.
func LoadRegistry(ctx context.Context, path string) (*Registry, error) {
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.E(err, "read motif registry", path)
	}
	r, err := ParseRegistry(data)
	if err != nil {
		return nil, errors.E(err, path)
	}
	return r, nil
}
