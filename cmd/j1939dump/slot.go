package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aldas/go-j1939"
	"github.com/spf13/cobra"
)

func newSlotCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Convert between physical and raw values of scaling, limit, offset and transfer (SLOT) definitions.",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List known SLOT definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(root.output, outputText, outputJSON); err != nil {
				return err
			}
			result := make(slotDefinitions, 0, len(j1939.SlotDefinitions))
			for _, d := range j1939.SlotDefinitions {
				result = append(result, newSlotDefinitionInfo(d))
			}
			return writeResult(cmd.OutOrStdout(), root.output, result)
		},
	}

	encodeCmd := &cobra.Command{
		Use:     "encode <slot> <physical-value>",
		Short:   "Encode physical value to raw wire value",
		Example: "  j1939dump slot encode EngineSpeed 1000",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(root.output, outputText, outputJSON); err != nil {
				return err
			}
			d, err := findSlot(args[0])
			if err != nil {
				return err
			}
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid physical value %q, err: %w", args[1], err)
			}
			slot, err := d.New(value)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), root.output, newSlotInfo(slot))
		},
	}

	decodeCmd := &cobra.Command{
		Use:     "decode <slot> <raw-value>",
		Short:   "Decode raw wire value to physical value",
		Example: "  j1939dump slot decode EngineSpeed 8000\n  j1939dump slot decode Temperature1Byte 0x41",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(root.output, outputText, outputJSON); err != nil {
				return err
			}
			d, err := findSlot(args[0])
			if err != nil {
				return err
			}
			raw, err := strconv.ParseUint(args[1], 0, 32)
			if err != nil {
				return fmt.Errorf("invalid raw value %q, err: %w", args[1], err)
			}
			s, err := j1939.NewSignal(d.Bits(), uint32(raw))
			if err != nil {
				return err
			}
			if !s.IsValid() {
				return fmt.Errorf("raw value 0x%X is %v indicator", raw, s.State())
			}
			slot, err := d.FromRaw(uint32(raw))
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), root.output, newSlotInfo(slot))
		},
	}

	cmd.AddCommand(listCmd, encodeCmd, decodeCmd)
	return cmd
}

func findSlot(name string) (j1939.SlotDefinition, error) {
	d, ok := j1939.FindSlotDefinition(name)
	if !ok {
		return j1939.SlotDefinition{}, fmt.Errorf("unknown slot: %v", name)
	}
	return d, nil
}

type slotDefinitionInfo struct {
	Name   string            `json:"name"`
	Unit   string            `json:"unit"`
	Scale  float64           `json:"scale"`
	Offset float64           `json:"offset"`
	Min    float64           `json:"min"`
	Max    float64           `json:"max"`
	Bits   j1939.SignalWidth `json:"bits"`
}

func newSlotDefinitionInfo(d j1939.SlotDefinition) slotDefinitionInfo {
	return slotDefinitionInfo{
		Name:   d.Name(),
		Unit:   d.Unit(),
		Scale:  d.ScalingFactor(),
		Offset: d.Offset(),
		Min:    d.Min(),
		Max:    d.Max(),
		Bits:   d.Bits(),
	}
}

type slotDefinitions []slotDefinitionInfo

func (s slotDefinitions) writeText(w io.Writer) error {
	for _, d := range s {
		fmt.Fprintf(w, "%-20v %-6v scale: %v, offset: %v, range: [%v, %v], bits: %v\n",
			d.Name, d.Unit, d.Scale, d.Offset, d.Min, d.Max, d.Bits)
	}
	return nil
}

type slotInfo struct {
	Slot  string     `json:"slot"`
	Value j1939.Slot `json:"value"`
	Raw   uint32     `json:"raw"`
}

func newSlotInfo(s j1939.Slot) slotInfo {
	return slotInfo{
		Slot:  s.Definition().Name(),
		Value: s,
		Raw:   s.Raw(),
	}
}

func (i slotInfo) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%v: %v = raw %v (0x%X)\n", i.Slot, green("%v", i.Value), i.Raw, i.Raw)
	return err
}
