package convert

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/docrotate/internal/discovery"
)

// OutputFilename builds the collision-safe output name
// "{base}_from_{srcExt}.{dstExt}". Embedding the source extension keeps two
// sources that share a base name (report.pdf, report.docx) from clobbering
// each other's exports. Injective over distinct (base, srcExt, dstExt)
// triples.
func OutputFilename(baseName, srcExt, dstExt string) string {
	return fmt.Sprintf("%s_from_%s.%s", baseName, srcExt, dstExt)
}

// OutputPath mirrors the source's relative directory under outputsRoot and
// appends the collision-safe filename for the target format.
func OutputPath(outputsRoot string, rec discovery.FileRecord, target Format) string {
	name := OutputFilename(rec.BaseName(), rec.Extension(), target.Ext())
	relDir := filepath.Dir(rec.RelativePath)
	if relDir == "." {
		return filepath.Join(outputsRoot, name)
	}
	return filepath.Join(outputsRoot, relDir, name)
}
