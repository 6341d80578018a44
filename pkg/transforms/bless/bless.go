// Package bless splits stylesheets that exceed the selector limit of old Internet Explorer.
package bless

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// DefaultLimit is the number of selectors Internet Explorer 9 and below read from one file.
const DefaultLimit = 4095

// Options configures the split.
type Options struct {
	// Limit is the maximum number of selectors per file. Zero means DefaultLimit.
	Limit int
	// NoImports disables the @import of the split parts from the main file.
	NoImports bool
}

// Rule is a top level statement or block with the number of selectors it holds.
type Rule struct {
	Text      []byte
	Selectors int
}

type prelude struct {
	commas int
	isAt   bool
	empty  bool
}

// Rules tokenises src into its top level rules.
func Rules(src []byte) ([]Rule, error) {
	lexer := css.NewLexer(parse.NewInputBytes(src))

	var (
		rules []Rule
		cur   Rule
		depth int
		pre   = prelude{empty: true}
	)
	flush := func() {
		if strings.TrimSpace(string(cur.Text)) != "" {
			rules = append(rules, cur)
		}
		cur = Rule{}
	}

	for {
		tt, data := lexer.Next()
		if tt == css.ErrorToken {
			if lexer.Err() == io.EOF {
				break
			}

			return nil, errors.Wrap(lexer.Err(), "unable to tokenise stylesheet")
		}
		cur.Text = append(cur.Text, data...)

		switch tt {
		case css.WhitespaceToken, css.CommentToken:
			if depth == 0 && pre.empty && strings.TrimSpace(string(cur.Text)) == "" {
				cur.Text = cur.Text[:0]
			}
		case css.AtKeywordToken:
			if pre.empty {
				pre.isAt = true
			}
			pre.empty = false
		case css.CommaToken:
			pre.commas++
			pre.empty = false
		case css.LeftBraceToken:
			if !pre.isAt {
				cur.Selectors += pre.commas + 1
			}
			pre = prelude{empty: true}
			depth++
		case css.RightBraceToken:
			pre = prelude{empty: true}
			if depth > 0 {
				depth--
			}
			if depth == 0 {
				flush()
			}
		case css.SemicolonToken:
			pre = prelude{empty: true}
			if depth == 0 {
				flush()
			}
		default:
			pre.empty = false
		}
	}
	flush()

	return rules, nil
}

// Chunks groups rules so that every group holds at most limit selectors. A single rule
// over the limit gets a group of its own.
func Chunks(rules []Rule, limit int) [][]byte {
	var (
		chunks [][]byte
		cur    []byte
		count  int
	)
	for _, rule := range rules {
		if count > 0 && count+rule.Selectors > limit {
			chunks = append(chunks, cur)
			cur, count = nil, 0
		}
		if len(cur) > 0 {
			cur = append(cur, '\n')
		}
		cur = append(cur, rule.Text...)
		count += rule.Selectors
	}
	if len(cur) > 0 || len(chunks) == 0 {
		chunks = append(chunks, cur)
	}

	return chunks
}

// Split replaces every stylesheet over the limit by parts named "<name>-blessed<N>.css"
// and a main file keeping the last rules. The main file imports the parts in order so
// that the cascade is unchanged.
func Split(opts Options) pipeline.Transform {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	return pipeline.FlatMap("bless", func(_ context.Context, file *model.File) ([]*model.File, error) {
		rules, err := Rules(file.Contents)
		if err != nil {
			return nil, err
		}
		chunks := Chunks(rules, limit)
		if len(chunks) <= 1 {
			return []*model.File{file}, nil
		}

		res := make([]*model.File, 0, len(chunks))
		imports := make([]string, 0, len(chunks)-1)
		for i, chunk := range chunks[:len(chunks)-1] {
			part := file.Clone()
			part.History = nil
			part.Path = strings.TrimSuffix(file.Path, file.Ext()) + fmt.Sprintf("-blessed%d", i+1) + file.Ext()
			part.Contents = append(chunk, '\n')
			part.SourceMap = nil
			res = append(res, part)
			imports = append(imports, fmt.Sprintf("@import url('%s');\n", part.Basename()))
		}

		main := chunks[len(chunks)-1]
		if !opts.NoImports {
			main = append([]byte(strings.Join(imports, "")), main...)
		}
		file.Contents = append(main, '\n')
		file.SourceMap = nil

		return append(res, file), nil
	})
}
