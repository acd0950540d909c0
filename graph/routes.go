package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Route is a single named exit of a router node and its target.
type Route struct {
	Name   string
	Target string
}

// Routes is a router node's route table. Unlike a plain map it keeps the
// order in which routes were defined, because the canvas renders one handle
// per route in table order and a rename must not shuffle them.
type Routes []Route

// Get returns the target for a route name.
func (r Routes) Get(name string) (string, bool) {
	for _, rt := range r {
		if rt.Name == name {
			return rt.Target, true
		}
	}
	return "", false
}

// Has reports whether a route with the given name exists.
func (r Routes) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns the route names in table order. This is also the set of
// valid sourceHandle values for edges leaving the router.
func (r Routes) Names() []string {
	names := make([]string, len(r))
	for i, rt := range r {
		names[i] = rt.Name
	}
	return names
}

// Set overwrites the target of an existing route in place, or appends a new
// route, and returns the updated table.
func (r Routes) Set(name, target string) Routes {
	for i, rt := range r {
		if rt.Name == name {
			r[i].Target = target
			return r
		}
	}
	return append(r, Route{Name: name, Target: target})
}

// Delete removes a route by name, preserving the order of the rest.
func (r Routes) Delete(name string) Routes {
	out := r[:0]
	for _, rt := range r {
		if rt.Name != name {
			out = append(out, rt)
		}
	}
	return out
}

// Rename replaces a route's name in place, keeping its position and target.
func (r Routes) Rename(oldName, newName string) Routes {
	for i, rt := range r {
		if rt.Name == oldName {
			r[i].Name = newName
			return r
		}
	}
	return r
}

// Clone returns a copy of the table.
func (r Routes) Clone() Routes {
	if r == nil {
		return nil
	}
	out := make(Routes, len(r))
	copy(out, r)
	return out
}

// MarshalJSON writes the table as a JSON object whose keys appear in table
// order.
func (r Routes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rt := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(rt.Name)
		if err != nil {
			return nil, err
		}
		target, err := json.Marshal(rt.Target)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(target)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object key by key, preserving the order the
// document declares. encoding/json's map decoding would lose it.
func (r *Routes) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("routes: expected JSON object, got %v", tok)
	}
	out := Routes{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("routes: expected string key, got %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		target, ok := valTok.(string)
		if !ok {
			return fmt.Errorf("routes: route %q: expected string target, got %v", name, valTok)
		}
		out = out.Set(name, target)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}
