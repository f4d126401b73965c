package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aldas/go-j1939"
	"github.com/spf13/cobra"
)

func newSignalCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "signal <bits> <value>",
		Short:   "Classify raw signal value as valid, parameter specific, error or not available.",
		Example: "  j1939dump signal 8 0xFE\n  j1939dump signal 16 64255",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(root.output, outputText, outputJSON); err != nil {
				return err
			}
			width, err := parseWidth(args[0])
			if err != nil {
				return err
			}
			value, err := strconv.ParseUint(args[1], 0, 32)
			if err != nil {
				return fmt.Errorf("invalid signal value %q, err: %w", args[1], err)
			}
			s, err := j1939.NewSignal(width, uint32(value))
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), root.output, newSignalInfo(s))
		},
	}

	rangesCmd := &cobra.Command{
		Use:   "ranges",
		Short: "Print transmitted value ranges for all supported bit widths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(root.output, outputText, outputJSON); err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), root.output, newRangesInfo())
		},
	}
	cmd.AddCommand(rangesCmd)
	return cmd
}

func parseWidth(raw string) (j1939.SignalWidth, error) {
	n, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid signal bit width %q, err: %w", raw, err)
	}
	width := j1939.SignalWidth(n)
	if _, ok := width.Ranges(); !ok {
		return 0, fmt.Errorf("%w: %v", j1939.ErrUnsupportedWidth, n)
	}
	return width, nil
}

func colorState(s j1939.SignalState) string {
	switch s {
	case j1939.StateValid:
		return green("%v", s)
	case j1939.StateSpecific:
		return blue("%v", s)
	}
	return red("%v", s)
}

type signalInfo struct {
	Bits     j1939.SignalWidth `json:"bits"`
	Value    uint32            `json:"value"`
	State    string            `json:"state"`
	Reserved bool              `json:"reserved"`

	state j1939.SignalState
}

func newSignalInfo(s j1939.Signal) signalInfo {
	return signalInfo{
		Bits:     s.Width(),
		Value:    s.Value(),
		State:    s.State().String(),
		Reserved: s.IsReserved(),
		state:    s.State(),
	}
}

func (i signalInfo) writeText(w io.Writer) error {
	reserved := ""
	if i.Reserved {
		reserved = " (reserved)"
	}
	_, err := fmt.Fprintf(w, "%v bits 0x%X (%v): %v%v\n", i.Bits, i.Value, i.Value, colorState(i.state), reserved)
	return err
}

type rangesInfo []widthRanges

type widthRanges struct {
	Bits   j1939.SignalWidth  `json:"bits"`
	Ranges j1939.SignalRanges `json:"ranges"`
}

func newRangesInfo() rangesInfo {
	result := make(rangesInfo, 0, len(j1939.SignalWidths))
	for _, w := range j1939.SignalWidths {
		r, _ := w.Ranges()
		result = append(result, widthRanges{Bits: w, Ranges: r})
	}
	return result
}

func (r rangesInfo) writeText(w io.Writer) error {
	for _, wr := range r {
		digits := (int(wr.Bits) + 3) / 4
		format := fmt.Sprintf("0x%%0%dX-0x%%0%dX", digits, digits)
		rng := func(r j1939.Range) string {
			return fmt.Sprintf(format, r.Min, r.Max)
		}
		fmt.Fprintf(w, "%2v bits: valid %v, specific %v, reserved %v, error %v, not available %v\n",
			wr.Bits,
			green("%v", rng(wr.Ranges.Valid)),
			blue("%v", rng(wr.Ranges.Specific)),
			blue("%v", rng(wr.Ranges.Reserved)),
			red("%v", rng(wr.Ranges.Error)),
			red("%v", rng(wr.Ranges.NotAvailable)),
		)
	}
	return nil
}
