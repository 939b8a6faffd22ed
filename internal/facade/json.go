package facade

import (
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ToJSON renders an Answer as a JSON document, built incrementally with
// sjson rather than encoding/json's struct tags, so the CLI's --json
// output can stay schema-stable even as Answer's Go-side fields evolve.
func ToJSON(a *Answer) (string, error) {
	doc := "{}"
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		doc, err = sjson.Set(doc, path, value)
	}

	set("kind", string(a.Kind))
	set("have", a.Have)
	if a.Want != "" {
		set("want", a.Want)
	}
	switch a.Kind {
	case KindFactor, KindReciprocal, KindFunction:
		set("factor", a.Factor)
		if a.HasInverse {
			set("inverseFactor", a.InverseFactor)
		}
	case KindDefinition:
		set("definition", a.Definition)
	case KindDecompose:
		for i, t := range a.Terms {
			set("terms."+strconv.Itoa(i)+".value", t.Value)
			set("terms."+strconv.Itoa(i)+".unit", t.Unit)
		}
	case KindSearch:
		for i, m := range a.Matches {
			set("matches."+strconv.Itoa(i), m)
		}
	}
	set("text", a.Text)
	if err != nil {
		return "", err
	}
	return doc, nil
}

// FromJSONAt extracts the "factor" field of the Answer indexFromEnd
// entries back from the end of arrayDoc, a JSON array of documents
// previously built by ToJSON (0 is the most recent). It returns
// ok=false if the index is out of range or that entry has no "factor"
// field, used by the REPL's "_N" history replay (cmd/units/cmd/repl.go)
// to recall an earlier answer without re-running its conversion.
func FromJSONAt(arrayDoc string, indexFromEnd int) (float64, bool) {
	entries := gjson.Parse(arrayDoc).Array()
	i := len(entries) - 1 - indexFromEnd
	if i < 0 || i >= len(entries) {
		return 0, false
	}
	r := entries[i].Get("factor")
	return r.Float(), r.Exists()
}
