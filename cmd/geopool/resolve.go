package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/nishad/geopool/internal/httpclient"
	"github.com/nishad/geopool/internal/models"
	"github.com/nishad/geopool/internal/resolve"
	"github.com/spf13/cobra"
)

var resolveDirection string

var resolveCmd = &cobra.Command{
	Use:   "resolve [ACCESSION...]",
	Short: "Resolve individual accessions",
	Long: `Look up the counterpart of each accession and print
ACCESSION<TAB>OUTCOME<TAB>ID. The direction is inferred from the accession
prefix (GSE: geo-to-sra, SRP/ERP/DRP: sra-to-geo) unless --direction is set.
Accessions are read from stdin when none are given.`,
	Example: `  geopool resolve GSE12345
  geopool resolve --direction sra-to-geo SRP000001 SRP000002`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveDirection, "direction", "d", "", "Resolver (geo-to-sra|sra-to-geo)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	accessions, err := argsOrStdin(args, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read accessions: %w", err)
	}

	var fixed resolve.Direction
	if resolveDirection != "" {
		if fixed, err = resolve.ParseDirection(resolveDirection); err != nil {
			return fmt.Errorf("invalid --direction %q: must be geo-to-sra or sra-to-geo", resolveDirection)
		}
	}

	client := httpclient.New(httpclient.OptionsFromConfig(cfg))
	resolvers := map[resolve.Direction]resolve.Resolver{
		resolve.GEOToSRA: resolve.NewMemo(newResolver(resolve.GEOToSRA, client)),
		resolve.SRAToGEO: resolve.NewMemo(newResolver(resolve.SRAToGEO, client)),
	}

	for _, acc := range accessions {
		d := fixed
		if d == "" {
			if d = inferDirection(acc); d == "" {
				printWarning("cannot tell the direction for %s, use --direction", acc)
				continue
			}
		}

		res, err := resolve.Resolve(cmd.Context(), resolvers[d], studyFor(d, acc))
		if err != nil {
			return err
		}
		if err := writeResult(cmd.OutOrStdout(), acc, res); err != nil {
			return err
		}
	}
	return nil
}

// inferDirection guesses the lookup direction from the accession prefix
func inferDirection(acc string) resolve.Direction {
	upper := strings.ToUpper(acc)
	switch {
	case strings.HasPrefix(upper, "GSE"):
		return resolve.GEOToSRA
	case strings.HasPrefix(upper, "SRP"), strings.HasPrefix(upper, "ERP"), strings.HasPrefix(upper, "DRP"):
		return resolve.SRAToGEO
	}
	return ""
}

// studyFor builds the record a lone accession stands for
func studyFor(d resolve.Direction, acc string) models.Study {
	if d == resolve.GEOToSRA {
		return models.Study{GEOSeries: acc}
	}
	return models.Study{SRAStudy: acc}
}

func writeResult(w io.Writer, acc string, res resolve.Result) error {
	_, err := fmt.Fprintf(w, "%s\t%s\t%s\n", acc, res.Outcome, res.ID)
	return err
}
