package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aldas/go-j1939"
	"github.com/spf13/cobra"
)

func newIDCmd(root *rootOptions) *cobra.Command {
	standard := false
	cmd := &cobra.Command{
		Use:     "id <hex-identifier>",
		Short:   "Decode 11 bit or 29 bit CAN identifier.",
		Example: "  j1939dump id 18EEFF10\n  j1939dump id --standard 755",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(root.output, outputText, outputJSON); err != nil {
				return err
			}
			id, err := parseIdentifier(args[0], standard)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), root.output, newIdentifierInfo(id))
		},
	}
	cmd.Flags().BoolVar(&standard, "standard", false, "treat identifier as 11 bit standard identifier")
	return cmd
}

// parseIdentifier parses hex identifier. Identifier written with 3 or less digits is considered standard identifier
// same way as candump does.
func parseIdentifier(raw string, standard bool) (j1939.Identifier, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	value, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid identifier %q, err: %w", raw, err)
	}
	if standard || len(digits) <= 3 {
		if value > uint64(j1939.StandardIDMask) {
			return nil, fmt.Errorf("identifier %X does not fit into 11 bits", value)
		}
		return j1939.StandardID(value), nil
	}
	if value > uint64(j1939.ExtendedIDMask) {
		return nil, fmt.Errorf("identifier %X does not fit into 29 bits", value)
	}
	return j1939.ExtendedID(value), nil
}

type identifierInfo struct {
	Raw      string `json:"raw"`
	Extended bool   `json:"extended"`
	Priority uint8  `json:"priority"`
	Source   uint8  `json:"source"`

	PGN              uint32 `json:"pgn,omitempty"`
	PDU              string `json:"pdu,omitempty"`
	DataPage         bool   `json:"data_page,omitempty"`
	ExtendedDataPage bool   `json:"extended_data_page,omitempty"`
	Destination      *uint8 `json:"destination,omitempty"`
	GroupExtension   *uint8 `json:"group_extension,omitempty"`
}

func newIdentifierInfo(id j1939.Identifier) identifierInfo {
	result := identifierInfo{
		Raw:      fmt.Sprint(id),
		Extended: id.IsExtended(),
		Priority: id.Priority(),
		Source:   id.SourceAddress(),
	}
	eid, ok := id.(j1939.ExtendedID)
	if !ok {
		return result
	}
	result.PGN = eid.PGN()
	result.PDU = "PDU2"
	if eid.IsPDU1() {
		result.PDU = "PDU1"
	}
	result.DataPage = eid.DataPage()
	result.ExtendedDataPage = eid.ExtendedDataPage()
	if da, ok := eid.DestinationAddress(); ok {
		result.Destination = &da
	}
	if ge, ok := eid.GroupExtension(); ok {
		result.GroupExtension = &ge
	}
	return result
}

func (i identifierInfo) writeText(w io.Writer) error {
	kind := "standard"
	if i.Extended {
		kind = "extended"
	}
	fmt.Fprintf(w, "id: %v (%v)\n", i.Raw, kind)
	fmt.Fprintf(w, "priority: %v\n", i.Priority)
	fmt.Fprintf(w, "source: %v\n", i.Source)
	if !i.Extended {
		return nil
	}
	fmt.Fprintf(w, "pgn: %v (0x%05X)\n", i.PGN, i.PGN)
	fmt.Fprintf(w, "pdu: %v\n", i.PDU)
	fmt.Fprintf(w, "data page: %v, extended data page: %v\n", i.DataPage, i.ExtendedDataPage)
	if i.Destination != nil {
		fmt.Fprintf(w, "destination: %v\n", *i.Destination)
	}
	if i.GroupExtension != nil {
		fmt.Fprintf(w, "group extension: %v\n", *i.GroupExtension)
	}
	return nil
}
