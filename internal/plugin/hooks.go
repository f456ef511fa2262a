package plugin

import (
	"path"

	"github.com/yacobolo/cssdts/internal/dialect"
	"github.com/yacobolo/cssdts/internal/hook"
	"github.com/yacobolo/cssdts/internal/logging"
	"github.com/yacobolo/cssdts/internal/resolve"
)

// afterResolve fills the entries the host left unresolved with virtual
// declaration paths for existing stylesheets. Entries the host resolved are
// left alone.
func (s *Session) afterResolve(res []*ResolvedModule, c *hook.Call[ResolveArgs]) []*ResolvedModule {
	log := logging.For(s.logger, "plugin")
	dir := path.Dir(resolve.ToSlash(c.Args.ContainingFile))

	for i, name := range c.Args.ModuleNames {
		if i >= len(res) || res[i] != nil {
			continue
		}

		candidate := path.Join(dir, resolve.ToSlash(name))
		d := dialect.Detect(candidate, s.cfg.Extensions)
		if d == dialect.Unknown {
			continue
		}
		if !s.files.Exists(candidate) {
			log.Debug().Str("path", candidate).Str("from", c.Args.ContainingFile).Msg("stylesheet not found")
			continue
		}

		rec, created := s.registry.Ensure(candidate, d)
		res[i] = &ResolvedModule{
			ResolvedFileName: rec.VirtualPath(),
			Extension:        ExtensionDts,
		}
		if created {
			log.Debug().Str("path", candidate).Str("dialect", d.String()).Msg("registered stylesheet")
			rec.Update(s.ctx)
		}
	}
	return res
}

// beforeScriptInfo answers script info requests for registered stylesheets
// with a mapper that puts every position at the start of the file.
func (s *Session) beforeScriptInfo(c *hook.BeforeCall[string]) ScriptInfo {
	if !s.registry.IsStylesheet(resolve.ToSlash(c.Args)) {
		return nil
	}
	c.Override()
	return fileStart{}
}

type fileStart struct{}

func (fileStart) PositionToLineOffset(int) LineOffset {
	return LineOffset{Line: 1, Offset: 1}
}
