package evdvk

import "fmt"

// Usage keys understood by ConfigFromUsage.
const (
	UsageAppName             = "AppName"
	UsageMultiBuffer         = "MultiBuffer"
	UsageVerbosity           = "Verbosity"
	UsageValidationThreshold = "ValidationThreshold"
	UsageVertexShader        = "VertexShader"
	UsageFragmentShader      = "FragmentShader"
)

//Defines the front end's property bag for the backend. Properties are grouped by kind,
//a Usage may link a further Usage which is consulted when a key is missing here.
type Usage struct {
	Name         string
	String_props map[string]string
	Int_props    map[string]int
	Bool_props   map[string]bool
	Float_props  map[string]float32
	Linked_usage *Usage
}

func NewUsage(name string, default_size uint) *Usage {
	var use Usage
	use.Name = name
	use.String_props = make(map[string]string, default_size)
	use.Int_props = make(map[string]int, default_size)
	use.Bool_props = make(map[string]bool, default_size)
	use.Float_props = make(map[string]float32, default_size)
	return &use
}

func (u *Usage) HasNext() bool {
	return u.Linked_usage != nil
}

func (u *Usage) GetLinkedUsage() (*Usage, error) {
	if !u.HasNext() {
		return nil, fmt.Errorf("Properties %s has no linked usage", u.Name)
	}
	return u.Linked_usage, nil
}

func (u *Usage) String(key string) (string, bool) {
	for use := u; use != nil; use = use.Linked_usage {
		if v, ok := use.String_props[key]; ok {
			return v, true
		}
	}
	return "", false
}

func (u *Usage) Int(key string) (int, bool) {
	for use := u; use != nil; use = use.Linked_usage {
		if v, ok := use.Int_props[key]; ok {
			return v, true
		}
	}
	return 0, false
}

func (u *Usage) Bool(key string) (bool, bool) {
	for use := u; use != nil; use = use.Linked_usage {
		if v, ok := use.Bool_props[key]; ok {
			return v, true
		}
	}
	return false, false
}

func (u *Usage) Float(key string) (float32, bool) {
	for use := u; use != nil; use = use.Linked_usage {
		if v, ok := use.Float_props[key]; ok {
			return v, true
		}
	}
	return 0, false
}
