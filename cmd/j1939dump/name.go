package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aldas/go-j1939"
	"github.com/spf13/cobra"
)

func newNameCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "name",
		Short: "Decode or encode 64 bit NAME used in address claim.",
	}

	isNumber := false
	decodeCmd := &cobra.Command{
		Use:     "decode <hex>",
		Short:   "Decode NAME from its 8 wire bytes (16 hex characters) or from number with --number",
		Example: "  j1939dump name decode 0e99a203198008b2\n  j1939dump name decode --number 0xB208801903A2990E",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(root.output, outputText, outputJSON); err != nil {
				return err
			}
			name, err := parseName(args[0], isNumber)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), root.output, newNameInfo(name))
		},
	}
	decodeCmd.Flags().BoolVar(&isNumber, "number", false, "argument is NAME as 64 bit number (decimal or 0x prefixed hex)")

	fields := j1939.NameFields{}
	industryGroup := uint8(0)
	encodeCmd := &cobra.Command{
		Use:     "encode",
		Short:   "Encode NAME from its fields",
		Example: "  j1939dump name encode --identity 170254 --manufacturer 29 --ecu-instance 1 --function-instance 3 --function 128 --vehicle-system 4 --vehicle-system-instance 2 --industry-group 3 --arbitrary-address-capable",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(root.output, outputText, outputJSON); err != nil {
				return err
			}
			fields.IndustryGroup = j1939.IndustryGroup(industryGroup)
			name, err := j1939.NewName(fields)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), root.output, newNameInfo(name))
		},
	}
	f := encodeCmd.Flags()
	f.Uint32Var(&fields.Identity, "identity", 0, "identity number (21 bits)")
	f.Uint16Var(&fields.ManufacturerCode, "manufacturer", 0, "manufacturer code (11 bits)")
	f.Uint8Var(&fields.ECUInstance, "ecu-instance", 0, "ECU instance (3 bits)")
	f.Uint8Var(&fields.FunctionInstance, "function-instance", 0, "function instance (5 bits)")
	f.Uint8Var(&fields.Function, "function", 0, "function (8 bits)")
	f.Uint8Var(&fields.VehicleSystem, "vehicle-system", 0, "vehicle system (7 bits)")
	f.Uint8Var(&fields.VehicleSystemInstance, "vehicle-system-instance", 0, "vehicle system instance (4 bits)")
	f.Uint8Var(&industryGroup, "industry-group", 0, "industry group (3 bits)")
	f.BoolVar(&fields.ArbitraryAddressCapable, "arbitrary-address-capable", false, "node is arbitrary address capable")

	cmd.AddCommand(decodeCmd, encodeCmd)
	return cmd
}

func parseName(raw string, isNumber bool) (j1939.Name, error) {
	if isNumber {
		n, err := strconv.ParseUint(raw, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid NAME number %q, err: %w", raw, err)
		}
		return j1939.Name(n), nil
	}
	var name j1939.Name
	if err := name.UnmarshalText([]byte(raw)); err != nil {
		return 0, err
	}
	return name, nil
}

type nameInfo struct {
	Name          j1939.Name       `json:"name"`
	Number        uint64           `json:"number"`
	Fields        j1939.NameFields `json:"fields"`
	IndustryGroup string           `json:"industry_group"`
	Reserved      bool             `json:"reserved"`
}

func newNameInfo(n j1939.Name) nameInfo {
	return nameInfo{
		Name:          n,
		Number:        n.Uint64(),
		Fields:        n.Fields(),
		IndustryGroup: n.Fields().IndustryGroup.String(),
		Reserved:      n.Reserved(),
	}
}

func (i nameInfo) writeText(w io.Writer) error {
	f := i.Fields
	fmt.Fprintf(w, "name: %v (0x%016X)\n", i.Name, i.Number)
	fmt.Fprintf(w, "identity: %v\n", f.Identity)
	fmt.Fprintf(w, "manufacturer code: %v\n", f.ManufacturerCode)
	fmt.Fprintf(w, "ecu instance: %v\n", f.ECUInstance)
	fmt.Fprintf(w, "function instance: %v\n", f.FunctionInstance)
	fmt.Fprintf(w, "function: %v\n", f.Function)
	fmt.Fprintf(w, "vehicle system: %v\n", f.VehicleSystem)
	fmt.Fprintf(w, "vehicle system instance: %v\n", f.VehicleSystemInstance)
	fmt.Fprintf(w, "industry group: %v (%v)\n", uint8(f.IndustryGroup), i.IndustryGroup)
	fmt.Fprintf(w, "arbitrary address capable: %v\n", f.ArbitraryAddressCapable)
	if i.Reserved {
		fmt.Fprintf(w, "%v\n", red("reserved bit is set"))
	}
	return nil
}
