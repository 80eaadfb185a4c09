// Command musgen regenerates core/records_mus.gen.go, the mus serializers for
// the values stored in the embedded index. Run it through go generate in core.
package main

import (
	"os"
	"reflect"
	"strings"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	typeops "github.com/mus-format/musgen-go/options/type"

	"github.com/poiesic/marquee/core"
)

const output = "./core/records_mus.gen.go"

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

func run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	// go generate runs in core; write relative to the module root.
	if strings.HasSuffix(cwd, "core") {
		if err := os.Chdir(".."); err != nil {
			return err
		}
	}

	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/poiesic/marquee/core"),
	)
	if err != nil {
		return err
	}

	// MovieDocument holds a CandidateRecord, so the record goes first.
	if err := g.AddStruct(reflect.TypeFor[core.CandidateRecord]()); err != nil {
		return err
	}
	if err := g.AddStruct(reflect.TypeFor[core.MovieDocument]()); err != nil {
		return err
	}

	micros := typeops.WithTimeUnit(typeops.Micro)
	err = g.AddStruct(reflect.TypeFor[core.Checkpoint](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(micros))
	if err != nil {
		return err
	}

	bs, err := g.Generate()
	if err != nil {
		return err
	}
	return os.WriteFile(output, bs, 0644)
}
