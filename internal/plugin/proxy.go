package plugin

// proxy forwards to the wrapped language service, rewriting definitions
// that land in virtual declaration files.
type proxy struct {
	LanguageService
	session *Session
}

// GetDefinitionAtPosition points definitions inside a virtual declaration
// at the start of its stylesheet.
func (p *proxy) GetDefinitionAtPosition(fileName string, position int) []DefinitionInfo {
	defs := p.LanguageService.GetDefinitionAtPosition(fileName, position)

	out := make([]DefinitionInfo, 0, len(defs))
	for _, def := range defs {
		if rec, ok := p.session.registry.Lookup(def.FileName); ok {
			def.FileName = rec.RealPath()
			def.TextSpan = TextSpan{}
		}
		out = append(out, def)
	}
	return out
}
