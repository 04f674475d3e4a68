package hclstage

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/restage/internal/ctxlog"
	"github.com/vk/restage/internal/stage"
)

// WriteFile persists a stage back to its file, including its recorded
// checksums. Expressions present in the original file are written in their
// evaluated form.
func (l *Loader) WriteFile(ctx context.Context, st *stage.Stage) error {
	logger := ctxlog.FromContext(ctx)

	f := hclwrite.NewEmptyFile()
	body := f.Body()

	block := body.AppendNewBlock("stage", []string{st.Name})
	bb := block.Body()
	bb.SetAttributeValue("cmd", cty.StringVal(st.Cmd))
	if len(st.Deps) > 0 {
		bb.SetAttributeValue("deps", stringList(st.Deps))
	}
	if len(st.Outs) > 0 {
		bb.SetAttributeValue("outs", stringList(st.Outs))
	}
	if st.Locked {
		bb.SetAttributeValue("locked", cty.True)
	}
	if len(st.Checksums) > 0 {
		bb.AppendNewline()
		sums := make(map[string]cty.Value, len(st.Checksums))
		for path, sum := range st.Checksums {
			sums[path] = cty.StringVal(sum)
		}
		// A cty map keeps keys sorted, so rewrites are byte-stable.
		bb.SetAttributeValue("checksums", cty.MapVal(sums))
	}

	if err := os.WriteFile(st.Path, f.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing stage file %s: %w", st.Path, err)
	}
	logger.Debug("Stage file written.", "stage", st.Relpath)
	return nil
}

func stringList(values []string) cty.Value {
	elems := make([]cty.Value, len(values))
	for i, v := range values {
		elems[i] = cty.StringVal(v)
	}
	return cty.ListVal(elems)
}
