package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/prolly/internal/parse"
	"github.com/roach88/prolly/internal/term"
)

// Load errors, matched with errors.Is.
var (
	ErrNoKnowledgeFiles     = errors.New("no knowledge files found")
	ErrUnsupportedExtension = errors.New("unsupported knowledge file extension")
)

// TextExtensions are the file extensions read with the text syntax.
var TextExtensions = []string{".pl", ".prolly", ".kb"}

// Load reads clauses from files and directories, in argument order.
//
// A .cue file, or the .cue files directly inside a directory, compile as
// one CUE instance. Text files are parsed with package parse; directories
// are walked for them in lexical order after the CUE instance.
func Load(paths ...string) ([]term.Clause, error) {
	var out []term.Clause
	for _, p := range paths {
		clauses, err := loadPath(p)
		if err != nil {
			return nil, err
		}
		out = append(out, clauses...)
	}
	return out, nil
}

func loadPath(path string) ([]term.Clause, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge path %s: %w", path, err)
	}

	if !info.IsDir() {
		switch ext := filepath.Ext(path); {
		case ext == ".cue":
			kb, err := LoadCUE(filepath.Dir(path), filepath.Base(path))
			if err != nil {
				return nil, err
			}
			return kb.Clauses, nil
		case slices.Contains(TextExtensions, ext):
			return LoadText(path)
		default:
			return nil, fmt.Errorf("%s: %w %q", path, ErrUnsupportedExtension, ext)
		}
	}

	cueFiles, err := filepath.Glob(filepath.Join(path, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	var out []term.Clause
	if len(cueFiles) > 0 {
		names := make([]string, len(cueFiles))
		for i, f := range cueFiles {
			names[i] = filepath.Base(f)
		}
		kb, err := LoadCUE(path, names...)
		if err != nil {
			return nil, err
		}
		out = append(out, kb.Clauses...)
	}

	textFiles, err := FindFiles(path, TextExtensions...)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	for _, f := range textFiles {
		clauses, err := LoadText(f)
		if err != nil {
			return nil, err
		}
		out = append(out, clauses...)
	}

	if len(cueFiles) == 0 && len(textFiles) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoKnowledgeFiles, path)
	}
	return out, nil
}

// LoadText parses one text knowledge file.
func LoadText(path string) ([]term.Clause, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	clauses, err := parse.ParseProgram(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clauses, nil
}

// LoadCUE loads the named .cue files in dir as one instance and compiles
// it. Files are passed explicitly so no cue.mod is needed.
func LoadCUE(dir string, files ...string) (*KnowledgeBase, error) {
	ctx := cuecontext.New()
	instances := load.Instances(files, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("%s: no CUE instances loaded", dir)
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileKB(value)
}

// FindFiles walks dir and returns the paths with one of the extensions,
// in lexical order. Hidden directories are skipped.
func FindFiles(dir string, exts ...string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && path != dir && info.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if !info.IsDir() && slices.Contains(exts, filepath.Ext(path)) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
