package mypos

// Param is one named field of the gateway request.
type Param struct {
	Key   string
	Value string
}

// ParamSet is the ordered field list sent to the myPOS checkout endpoint.
// Insertion order is part of the wire contract: the signature is computed
// over the field values in exactly this order, so the set must never be
// rebuilt from an unordered map.
type ParamSet struct {
	params []Param
}

func (ps *ParamSet) Add(key, value string) {
	ps.params = append(ps.params, Param{Key: key, Value: value})
}

// Fields returns the parameters in insertion order.
func (ps *ParamSet) Fields() []Param {
	return ps.params
}

// Values returns the field values in insertion order, excluding the
// Signature field itself. This is the exact sequence the signing
// canonicalization consumes.
func (ps *ParamSet) Values() []string {
	values := make([]string, 0, len(ps.params))
	for _, p := range ps.params {
		if p.Key == FieldSignature {
			continue
		}
		values = append(values, p.Value)
	}
	return values
}

func (ps *ParamSet) Get(key string) (string, bool) {
	for _, p := range ps.params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func (ps *ParamSet) Len() int {
	return len(ps.params)
}
