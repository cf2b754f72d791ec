// Package plan turns a SQL Server showplan XML document into a compact,
// warning-annotated summary. It never executes anything and never fails:
// a plan the engine produced but this package cannot interpret degrades to
// a fixed fallback summary carrying a bounded excerpt of the raw document.
package plan

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Summary is the parsed result of one showplan document.
type Summary struct {
	SummaryText   string   `json:"summary"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty"`
	Warnings      []string `json:"warnings"`
	RawExcerpt    string   `json:"raw_excerpt"`
}

const (
	fallbackText = "Failed to parse plan XML (but plan was generated)."

	// Raw excerpt ceiling, in characters. Long plans get the first
	// excerptLimit characters plus an ellipsis marker.
	excerptLimit = 1500
)

// node is a generic ordered tree view over the showplan document. Element
// and attribute names are matched by local name so the showplan namespace
// does not matter.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []node     `xml:",any"`
}

// Summarize parses planXML and derives the summary. Parse failures are not
// errors: the engine did produce a plan, so the caller still gets a Summary
// with the fallback text and the raw excerpt.
func Summarize(planXML string) Summary {
	// Showplan documents declare encoding="utf-16", but the driver hands us
	// already-decoded text. The pass-through CharsetReader keeps the decoder
	// from rejecting the declaration.
	dec := xml.NewDecoder(strings.NewReader(planXML))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var root node
	if err := dec.Decode(&root); err != nil {
		return Summary{
			SummaryText: fallbackText,
			Warnings:    []string{},
			RawExcerpt:  excerpt(planXML),
		}
	}

	var maxCost *float64
	warnings := []string{}
	seenScanOps := map[string]bool{}
	missingIndexes := false
	hashMatch := false

	walk(&root, func(n *node) {
		switch n.XMLName.Local {
		case "RelOp":
			if v, ok := attrValue(n, "EstimatedTotalSubtreeCost"); ok {
				if cost, err := strconv.ParseFloat(v, 64); err == nil {
					if maxCost == nil || cost > *maxCost {
						maxCost = &cost
					}
				}
			}
			if op, ok := attrValue(n, "PhysicalOp"); ok {
				lower := strings.ToLower(op)
				if strings.Contains(lower, "scan") && !seenScanOps[op] {
					seenScanOps[op] = true
					warnings = append(warnings, "Plan contains operation: "+op)
				}
				if strings.Contains(lower, "hash match") {
					hashMatch = true
				}
			}
		case "MissingIndexGroup":
			missingIndexes = true
		}
	})

	if missingIndexes {
		warnings = append(warnings, "Plan suggests missing indexes.")
	}
	if hashMatch {
		warnings = append(warnings, "Plan uses Hash Match (may be heavy on large datasets).")
	}

	summaryText := "Estimated plan parsed. No cost detected."
	if maxCost != nil {
		summaryText = fmt.Sprintf("Estimated plan parsed. Max subtree cost ≈ %s.",
			strconv.FormatFloat(*maxCost, 'f', -1, 64))
	}

	return Summary{
		SummaryText:   summaryText,
		EstimatedCost: maxCost,
		Warnings:      warnings,
		RawExcerpt:    excerpt(planXML),
	}
}

// walk visits n and every descendant in document order.
func walk(n *node, visit func(*node)) {
	visit(n)
	for i := range n.Children {
		walk(&n.Children[i], visit)
	}
}

// attrValue returns the named attribute's value, matching by local name.
func attrValue(n *node, name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// excerpt returns the first excerptLimit characters of doc, appending an
// ellipsis marker only when the document was longer than the limit.
func excerpt(doc string) string {
	runes := []rune(doc)
	if len(runes) <= excerptLimit {
		return doc
	}
	return string(runes[:excerptLimit]) + "..."
}
