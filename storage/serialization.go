// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/scicat/core"
)

// Record encoding versions. The first byte of every stored value.
const (
	projectVersion        byte = 1
	fieldVersion          byte = 1
	classificationVersion byte = 1
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(id), nil
}

// MarshalProject serializes a Project to bytes.
func MarshalProject(p *core.Project) []byte {
	w := &writer{bs: make([]byte, 0, 256+len(p.Readme)+len(p.Description))}
	w.putByte(projectVersion)
	w.putUint64(uint64(p.Id))
	w.putString(p.Name)
	w.putString(p.Description)
	w.putString(p.Readme)
	w.putString(p.URL)
	w.putStrings(p.Keywords)
	w.putInt(len(p.Packages))
	for _, pkg := range p.Packages {
		w.putString(pkg.Name)
		w.putString(pkg.Ecosystem)
		w.putInt64(pkg.Downloads)
		w.putStrings(pkg.Licenses)
	}
	w.putInt(len(p.Manifests))
	for _, m := range p.Manifests {
		w.putString(m.Path)
		w.putInt(len(m.Dependencies))
		for _, d := range m.Dependencies {
			w.putString(d.PackageName)
			w.putString(d.Kind)
		}
	}
	w.putBool(p.Fork)
	w.putFloat64(p.ScienceScore)
	w.putFloat64(p.Score)
	w.putBool(p.Reference)
	w.putFloat64(p.RelevanceScore)
	w.putTime(p.InsertedAt)
	w.putTime(p.UpdatedAt)
	return w.bs
}

// UnmarshalProject deserializes a Project from bytes.
func UnmarshalProject(data []byte) (*core.Project, error) {
	r := &reader{bs: data}
	if v := r.readByte(); r.err == nil && v != projectVersion {
		return nil, fmt.Errorf("%w: project v%d", ErrUnsupportedVersion, v)
	}
	p := &core.Project{}
	p.Id = core.ID(r.readUint64())
	p.Name = r.readString()
	p.Description = r.readString()
	p.Readme = r.readString()
	p.URL = r.readString()
	p.Keywords = r.readStrings()
	if n := r.readLength(); n > 0 {
		p.Packages = make([]core.Package, n)
		for i := range p.Packages {
			p.Packages[i] = core.Package{
				Name:      r.readString(),
				Ecosystem: r.readString(),
				Downloads: r.readInt64(),
				Licenses:  r.readStrings(),
			}
		}
	}
	if n := r.readLength(); n > 0 {
		p.Manifests = make([]core.Manifest, n)
		for i := range p.Manifests {
			p.Manifests[i].Path = r.readString()
			if dn := r.readLength(); dn > 0 {
				p.Manifests[i].Dependencies = make([]core.Dependency, dn)
				for j := range p.Manifests[i].Dependencies {
					p.Manifests[i].Dependencies[j] = core.Dependency{
						PackageName: r.readString(),
						Kind:        r.readString(),
					}
				}
			}
		}
	}
	p.Fork = r.readBool()
	p.ScienceScore = r.readFloat64()
	p.Score = r.readFloat64()
	p.Reference = r.readBool()
	p.RelevanceScore = r.readFloat64()
	p.InsertedAt = r.readTime()
	p.UpdatedAt = r.readTime()
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

// MarshalField serializes a Field to bytes.
func MarshalField(f *core.Field) []byte {
	w := &writer{bs: make([]byte, 0, 512)}
	w.putByte(fieldVersion)
	w.putUint64(uint64(f.Id))
	w.putString(f.Name)
	w.putString(string(f.Domain))
	w.putStrings(f.Keywords)
	w.putStrings(f.Packages)
	w.putStrings(f.Indicators)
	w.putTime(f.InsertedAt)
	w.putTime(f.UpdatedAt)
	return w.bs
}

// UnmarshalField deserializes a Field from bytes.
func UnmarshalField(data []byte) (*core.Field, error) {
	r := &reader{bs: data}
	if v := r.readByte(); r.err == nil && v != fieldVersion {
		return nil, fmt.Errorf("%w: field v%d", ErrUnsupportedVersion, v)
	}
	f := &core.Field{
		Id:         core.ID(r.readUint64()),
		Name:       r.readString(),
		Domain:     core.Domain(r.readString()),
		Keywords:   r.readStrings(),
		Packages:   r.readStrings(),
		Indicators: r.readStrings(),
		InsertedAt: r.readTime(),
		UpdatedAt:  r.readTime(),
	}
	if r.err != nil {
		return nil, r.err
	}
	return f, nil
}

// MarshalClassification serializes a Classification to bytes.
// Signals are written in key order so equal values encode identically.
func MarshalClassification(c *core.Classification) []byte {
	w := &writer{bs: make([]byte, 0, 96)}
	w.putByte(classificationVersion)
	w.putUint64(uint64(c.ProjectId))
	w.putUint64(uint64(c.FieldId))
	w.putFloat64(c.Confidence)
	keys := make([]string, 0, len(c.Signals))
	for k := range c.Signals {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	w.putInt(len(keys))
	for _, k := range keys {
		w.putString(k)
		w.putFloat64(c.Signals[k])
	}
	w.putTime(c.ClassifiedAt)
	return w.bs
}

// UnmarshalClassification deserializes a Classification from bytes.
func UnmarshalClassification(data []byte) (*core.Classification, error) {
	r := &reader{bs: data}
	if v := r.readByte(); r.err == nil && v != classificationVersion {
		return nil, fmt.Errorf("%w: classification v%d", ErrUnsupportedVersion, v)
	}
	c := &core.Classification{
		ProjectId:  core.ID(r.readUint64()),
		FieldId:    core.ID(r.readUint64()),
		Confidence: r.readFloat64(),
	}
	n := r.readLength()
	c.Signals = make(map[string]float64, n)
	for range n {
		k := r.readString()
		c.Signals[k] = r.readFloat64()
	}
	c.ClassifiedAt = r.readTime()
	if r.err != nil {
		return nil, r.err
	}
	return c, nil
}

// writer appends MUS-encoded primitives to a growing buffer.
type writer struct {
	bs []byte
}

func (w *writer) grow(n int) []byte {
	w.bs = slices.Grow(w.bs, n)
	w.bs = w.bs[:len(w.bs)+n]
	return w.bs[len(w.bs)-n:]
}

func (w *writer) putByte(v byte) {
	w.bs = append(w.bs, v)
}

func (w *writer) putUint64(v uint64) {
	varint.Uint64.Marshal(v, w.grow(varint.Uint64.Size(v)))
}

func (w *writer) putInt(v int) {
	varint.Int.Marshal(v, w.grow(varint.Int.Size(v)))
}

func (w *writer) putInt64(v int64) {
	varint.Int64.Marshal(v, w.grow(varint.Int64.Size(v)))
}

func (w *writer) putFloat64(v float64) {
	raw.Float64.Marshal(v, w.grow(raw.Float64.Size(v)))
}

func (w *writer) putBool(v bool) {
	ord.Bool.Marshal(v, w.grow(ord.Bool.Size(v)))
}

func (w *writer) putString(v string) {
	ord.String.Marshal(v, w.grow(ord.String.Size(v)))
}

func (w *writer) putStrings(vs []string) {
	w.putInt(len(vs))
	for _, v := range vs {
		w.putString(v)
	}
}

// Unix microseconds; the zero time is stored as 0.
func (w *writer) putTime(t time.Time) {
	var v int64
	if !t.IsZero() {
		v = t.UnixMicro()
	}
	w.putInt64(v)
}

// reader consumes MUS-encoded primitives. The first failure sticks in err
// and every later read returns a zero value.
type reader struct {
	bs  []byte
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
}

func (r *reader) readByte() byte {
	if r.err != nil {
		return 0
	}
	if len(r.bs) == 0 {
		r.fail(ErrTruncatedData)
		return 0
	}
	v := r.bs[0]
	r.bs = r.bs[1:]
	return v
}

func (r *reader) readUint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.bs)
	if err != nil {
		r.fail(err)
		return 0
	}
	r.bs = r.bs[n:]
	return v
}

func (r *reader) readInt() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.bs)
	if err != nil {
		r.fail(err)
		return 0
	}
	r.bs = r.bs[n:]
	return v
}

// readLength reads a collection length and rejects values the remaining
// buffer cannot possibly hold.
func (r *reader) readLength() int {
	n := r.readInt()
	if r.err != nil {
		return 0
	}
	if n < 0 || n > len(r.bs) {
		r.fail(ErrTruncatedData)
		return 0
	}
	return n
}

func (r *reader) readInt64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs)
	if err != nil {
		r.fail(err)
		return 0
	}
	r.bs = r.bs[n:]
	return v
}

func (r *reader) readFloat64() float64 {
	if r.err != nil {
		return 0
	}
	v, n, err := raw.Float64.Unmarshal(r.bs)
	if err != nil {
		r.fail(err)
		return 0
	}
	r.bs = r.bs[n:]
	return v
}

func (r *reader) readBool() bool {
	if r.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(r.bs)
	if err != nil {
		r.fail(err)
		return false
	}
	r.bs = r.bs[n:]
	return v
}

func (r *reader) readString() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs)
	if err != nil {
		r.fail(err)
		return ""
	}
	r.bs = r.bs[n:]
	return v
}

func (r *reader) readStrings() []string {
	n := r.readLength()
	if n == 0 {
		return nil
	}
	vs := make([]string, n)
	for i := range vs {
		vs[i] = r.readString()
	}
	return vs
}

func (r *reader) readTime() time.Time {
	v := r.readInt64()
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}
