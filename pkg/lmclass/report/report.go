// Package report renders evaluation results for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cognicore/lmclass/pkg/lmclass/eval"
)

// Table writes the contingency table with true labels as rows and
// predicted labels as columns, followed by the accuracy.
func Table(w io.Writer, res eval.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight|tabwriter.Debug)

	header := append([]string{"true \\ predicted"}, res.Labels...)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, truth := range res.Labels {
		cells := make([]string, 0, len(res.Labels)+1)
		cells = append(cells, truth)
		for _, predicted := range res.Labels {
			cells = append(cells, fmt.Sprint(res.Count(truth, predicted)))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nmode: %s  correct: %d/%d  accuracy: %.4f\n",
		res.Mode, res.Correct, res.Total, res.Accuracy)
	return err
}

// JSON writes res as indented JSON
func JSON(w io.Writer, res eval.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// Write renders res in the named format ("table" or "json")
func Write(w io.Writer, format string, res eval.Result) error {
	switch format {
	case "", "table":
		return Table(w, res)
	case "json":
		return JSON(w, res)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
