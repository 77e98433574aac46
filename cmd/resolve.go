package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gnames/gncoleta/internal/io/loadio"
	"github.com/gnames/gncoleta/internal/str"
	gncoleta "github.com/gnames/gncoleta/pkg"
	"github.com/gnames/gncoleta/pkg/ent/model"
	"github.com/spf13/cobra"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve level=name...",
	Short: "Runs taxonomy selections and prints the consistent result",
	Long: `Loads a taxonomy and applies selections in the given order, starting
from an empty family/genus/species triple. After every selection the
resulting triple is printed.

Example:
  gncoleta resolve -t taxonomy.csv genus=Mimosa "species=Mimosa pudica"

An empty name clears the level and everything below it: "genus=".`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		taxonomy, _ := cmd.Flags().GetString("taxonomy")
		if taxonomy == "" {
			slog.Error("Taxonomy file is required")
			os.Exit(1)
		}

		s, err := newSession()
		if err != nil {
			slog.Error("Cannot start session", "error", err)
			os.Exit(1)
		}
		defer s.close()

		src, closeSrc, err := openSources(taxonomy, "", "")
		if err != nil {
			os.Exit(1)
		}
		defer closeSrc()

		ld := loadio.New(s.cfg, s.names, src)
		if _, err = s.gnc.Load(context.Background(), ld); err != nil {
			slog.Error("Cannot load taxonomy", "error", err)
			os.Exit(1)
		}

		var cur model.Triple
		for _, arg := range args {
			lvl, id, err := selection(s.gnc, cur, arg)
			if err != nil {
				fmt.Printf("%s %s: %s\n", color.New(color.FgRed).Sprint("SKIP"), arg, err)
				continue
			}
			res := s.gnc.Resolve(cur, lvl, id)
			if !res.Success() {
				fmt.Printf("%s %s: %s\n",
					color.New(color.FgRed).Sprint(res.Status), arg, res.Message)
				continue
			}
			cur = res.Data
			fmt.Printf("%s %-30s %s\n",
				color.New(color.FgGreen).Sprint("OK  "), arg, tripleNames(s.gnc, cur))
		}
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringP("taxonomy", "t", "", "path to taxonomy CSV file")
}

// selection parses "level=name" and finds the id of the name. A lower
// level is searched among children of the current triple first.
func selection(
	gnc gncoleta.GNcoleta,
	cur model.Triple,
	arg string,
) (model.Level, int, error) {
	lvlStr, name, ok := strings.Cut(arg, "=")
	if !ok {
		return 0, 0, fmt.Errorf("expected level=name")
	}
	name = strings.TrimSpace(name)

	var lvl model.Level
	switch strings.ToLower(strings.TrimSpace(lvlStr)) {
	case "family":
		lvl = model.LevelFamily
	case "genus":
		lvl = model.LevelGenus
	case "species":
		lvl = model.LevelSpecies
	default:
		return 0, 0, fmt.Errorf("unknown level %q", lvlStr)
	}
	if name == "" {
		return lvl, 0, nil
	}

	var ids, preferred []int
	switch lvl {
	case model.LevelFamily:
		for _, v := range gnc.Families().FindByName(name).Data {
			ids = append(ids, v.ID)
		}
	case model.LevelGenus:
		for _, v := range gnc.Genera().FindByName(name).Data {
			ids = append(ids, v.ID)
			if v.FamilyID == cur.FamilyID {
				preferred = append(preferred, v.ID)
			}
		}
	case model.LevelSpecies:
		for _, v := range gnc.Species().FindByName(name).Data {
			ids = append(ids, v.ID)
			if v.GenusID == cur.GenusID {
				preferred = append(preferred, v.ID)
			}
		}
	}
	if len(preferred) > 0 {
		return lvl, preferred[0], nil
	}
	if len(ids) == 0 {
		return lvl, 0, fmt.Errorf("%s %q not found", lvl, name)
	}
	return lvl, ids[0], nil
}

func tripleNames(gnc gncoleta.GNcoleta, t model.Triple) string {
	names := make([]string, 3)
	if t.FamilyID != 0 {
		names[0] = gnc.Families().GetByID(t.FamilyID).Data.Name
	}
	if t.GenusID != 0 {
		names[1] = gnc.Genera().GetByID(t.GenusID).Data.Name
	}
	if t.SpeciesID != 0 {
		names[2] = gnc.Species().GetByID(t.SpeciesID).Data.Name
	}
	for i := range names {
		names[i] = str.Dash(str.Shorten(names[i], 30))
	}
	return fmt.Sprintf("%s %s", t.Label(), strings.Join(names, " / "))
}
