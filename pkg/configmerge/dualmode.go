package configmerge

import (
	"github.com/spf13/afero"
)

// dualState tracks the dual-mode lifecycle. Modeling it as a three-state
// machine makes "add while disabled" and "add after build" well-defined
// no-ops instead of ambiguous boolean combinations.
type dualState int

const (
	dualDisabled dualState = iota
	dualAccumulating
	dualBuilt
)

// cleanBaseDocument is the minimal document dual-mode template output is
// folded onto. Starting from a fixed base rather than the working
// document guarantees the template never carries a real secret that
// leaked into the working file.
const cleanBaseDocument = `app:
  title: FlowSource App
  baseUrl: http://localhost:3000
organization:
  name: FlowSource
backend:
  baseUrl: http://localhost:7007
  listen:
    port: 7007
`

// DualOutputs holds the two documents produced by a dual-mode build.
type DualOutputs struct {
	Template *Document
	Value    *Document
}

// EnableDualMode starts accumulating template and value fragments. Any
// previously accumulated fragments are discarded.
func (m *Merger) EnableDualMode() {
	m.dual = dualAccumulating
	m.templateFrags = nil
	m.valueFrags = nil
	m.log.Debug().Msg("Dual mode enabled")
}

// DisableDualMode stops accumulation and discards both fragment lists.
func (m *Merger) DisableDualMode() {
	m.dual = dualDisabled
	m.templateFrags = nil
	m.valueFrags = nil
	m.log.Debug().Msg("Dual mode disabled")
}

// DualModeEnabled reports whether fragments are currently accumulated.
func (m *Merger) DualModeEnabled() bool {
	return m.dual == dualAccumulating
}

// AddTemplateFragment records a fragment carrying placeholder tokens.
// Outside the accumulating state this is a logged no-op: a caller that
// forgot to enable dual mode must not crash the run.
func (m *Merger) AddTemplateFragment(fragment *Fragment) {
	if m.dual != dualAccumulating {
		m.log.Debug().Msg("Ignoring template fragment, dual mode not accumulating")
		return
	}
	m.templateFrags = append(m.templateFrags, fragment)
}

// AddValueFragment records a fragment carrying real collected values.
// Outside the accumulating state this is a logged no-op.
func (m *Merger) AddValueFragment(fragment *Fragment) {
	if m.dual != dualAccumulating {
		m.log.Debug().Msg("Ignoring value fragment, dual mode not accumulating")
		return
	}
	m.valueFrags = append(m.valueFrags, fragment)
}

// BuildDualOutputs folds the accumulated template fragments, in
// insertion order, onto the clean base document and the value fragments
// onto the working document at workingPath, then writes the results to
// templatePath and valuePath. Building while not accumulating returns
// empty outputs without touching any file.
func (m *Merger) BuildDualOutputs(workingPath, templatePath, valuePath string) (*DualOutputs, bool) {
	if m.dual != dualAccumulating {
		m.log.Warn().Msg("BuildDualOutputs called while dual mode not accumulating")
		return &DualOutputs{Template: NewDocument(), Value: NewDocument()}, false
	}

	templateDoc, err := Parse([]byte(cleanBaseDocument))
	if err != nil {
		// The base is a compile-time constant; failing to parse it is a bug.
		panic(err)
	}
	for _, frag := range m.templateFrags {
		templateDoc = m.Merge(templateDoc, frag)
	}

	valueDoc := m.Load(workingPath)
	for _, frag := range m.valueFrags {
		valueDoc = m.Merge(valueDoc, frag)
	}

	ok := m.writeDocument(templatePath, templateDoc, "dual-template") &&
		m.writeDocument(valuePath, valueDoc, "dual-value")

	m.dual = dualBuilt
	return &DualOutputs{Template: templateDoc, Value: valueDoc}, ok
}

func (m *Merger) writeDocument(path string, doc *Document, label string) bool {
	data, err := doc.Encode()
	if err != nil {
		m.log.Error().Str("path", path).Str("label", label).Err(err).Msg("Failed to serialize document")
		return false
	}
	if err := afero.WriteFile(m.fs, path, data, 0644); err != nil {
		m.log.Error().Str("path", path).Str("label", label).Err(err).Msg("Failed to write document")
		return false
	}
	return true
}
