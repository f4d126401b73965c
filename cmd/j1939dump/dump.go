package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aldas/go-j1939"
	"github.com/aldas/go-j1939/addressmapper"
	"github.com/aldas/go-j1939/candump"
	"github.com/aldas/go-j1939/socketcan"
	"github.com/avast/retry-go"
	"github.com/spf13/cobra"
	"github.com/tarm/serial"
	"golang.org/x/sync/errgroup"
)

const maxConsecutiveReadErrors = 20

type dumpOptions struct {
	file          string
	serialPort    string
	serialBaud    int
	socketCAN     string
	interfaceName string
	filter        string
	decode        []string
	noNodes       bool
	openAttempts  uint
}

func newDumpCmd(root *rootOptions) *cobra.Command {
	opts := dumpOptions{}
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Read frames from candump log, serial port or SocketCAN interface and print them.",
		Example: "  j1939dump dump --file candump.log --filter 61444,60928\n" +
			"  candump -L can0 | j1939dump dump --file - --decode 61444:24:EngineSpeed\n" +
			"  j1939dump dump --socketcan can0 --output candump > bus.log",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(root.output, outputText, outputJSON, outputCandump, outputHex, outputBase64); err != nil {
				return err
			}
			filter, err := parsePGNFilter(opts.filter)
			if err != nil {
				return fmt.Errorf("invalid pgn filter given, %w", err)
			}
			decoders, err := parseSlotDecoders(opts.decode)
			if err != nil {
				return err
			}
			if opts.openAttempts == 0 {
				return errors.New("open attempts must be at least 1")
			}

			out := cmd.OutOrStdout()
			if len(filter) > 0 {
				fmt.Fprintf(out, "# Using PGN filter: %v\n", filter)
			}
			device, err := openDevice(cmd.Context(), opts)
			if err != nil {
				return err
			}

			p := &printer{
				out:      out,
				output:   root.output,
				filter:   filter,
				decoders: decoders,
				candump:  candump.NewWriter(out, opts.interfaceName),
			}
			if !opts.noNodes {
				p.mapper = addressmapper.NewAddressMapper()
			}
			return runDump(cmd.Context(), device, p)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "path to candump log file. `-` reads from stdin")
	f.StringVar(&opts.serialPort, "serial", "", "path to serial device sending candump lines. Example: /dev/ttyUSB0")
	f.IntVar(&opts.serialBaud, "serial-baud", 115200, "serial device baud rate")
	f.StringVar(&opts.socketCAN, "socketcan", "", "SocketCAN interface name. Example: can0")
	f.StringVar(&opts.interfaceName, "interface", "", "accept only candump lines from this interface, also used as interface name in candump output")
	f.StringVar(&opts.filter, "filter", "", "comma separated list of PGNs to print")
	f.StringArrayVar(&opts.decode, "decode", nil, "decode SLOT value from frames of PGN at bit offset. Format `pgn:bitOffset:slot`, for example 61444:24:EngineSpeed")
	f.BoolVar(&opts.noNodes, "no-nodes", false, "disable tracking of address claims")
	f.UintVar(&opts.openAttempts, "open-attempts", 3, "how many times opening device is attempted")
	return cmd
}

func newDevice(opts dumpOptions) (j1939.FrameReader, error) {
	switch {
	case opts.socketCAN != "":
		return socketcan.NewDevice(socketcan.DeviceConfig{
			InterfaceName:   opts.socketCAN,
			SkipErrorFrames: true,
		}), nil
	case opts.serialPort != "":
		port, err := serial.OpenPort(&serial.Config{
			Name: opts.serialPort,
			Baud: opts.serialBaud,
			Size: 8,
		})
		if err != nil {
			return nil, fmt.Errorf("opening serial port %q: %w", opts.serialPort, err)
		}
		return candump.NewDevice(port, opts.interfaceName), nil
	case opts.file == "-":
		return candump.NewDevice(os.Stdin, opts.interfaceName), nil
	case opts.file != "":
		file, err := os.Open(opts.file)
		if err != nil {
			return nil, err
		}
		return candump.NewDevice(file, opts.interfaceName), nil
	}
	return nil, errors.New("no input given, use --file, --serial or --socketcan")
}

func openDevice(ctx context.Context, opts dumpOptions) (j1939.FrameReader, error) {
	var device j1939.FrameReader
	err := retry.Do(func() error {
		d, err := newDevice(opts)
		if err != nil {
			return err
		}
		if err := d.Initialize(); err != nil {
			_ = d.Close()
			return err
		}
		device = d
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(opts.openAttempts),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("# retry #%d opening device: %v", n+1, err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return device, nil
}

// runDump reads frames from device in one goroutine and prints them in another until device ends (io.EOF), context
// is cancelled or printing fails. Device is closed before returning.
func runDump(ctx context.Context, device j1939.FrameReader, p *printer) error {
	var closeOnce sync.Once
	closeDevice := func() {
		closeOnce.Do(func() { _ = device.Close() })
	}
	defer closeDevice()

	g, ctx := errgroup.WithContext(ctx)
	// blocking reads (stdin, serial port) are released by closing the device
	stop := context.AfterFunc(ctx, closeDevice)
	defer stop()

	frames := make(chan j1939.Frame, 100)
	g.Go(func() error {
		defer close(frames)
		errorCount := 0
		for {
			frame, err := device.ReadFrame(ctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				errorCount++
				p.readError(err)
				if errorCount > maxConsecutiveReadErrors {
					return fmt.Errorf("too many consecutive read errors: %w", err)
				}
				continue
			}
			errorCount = 0
			select {
			case frames <- frame:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	g.Go(func() error {
		for frame := range frames {
			if err := p.print(ctx, frame); err != nil {
				return err
			}
		}
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	fmt.Fprintf(p.out, "# Finishing, number of processed frames: %v, errors: %v\n", p.frameCount, p.errorCount)
	return err
}

type printer struct {
	out      io.Writer
	output   string
	filter   []uint32
	decoders []slotDecoder
	mapper   *addressmapper.AddressMapper // nil when address claims are not tracked
	candump  *candump.Writer

	// mu guards counters and out. Reader and printer goroutines both write to them
	mu         sync.Mutex
	frameCount uint64
	errorCount uint64
}

func (p *printer) print(ctx context.Context, frame j1939.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	if p.mapper != nil {
		changed, err := p.mapper.Process(frame)
		if err != nil {
			p.errorCount++
			fmt.Fprintf(p.out, "# Error at address mapper processing: %v\n", err)
		}
		if changed {
			p.printNodes()
		}
	}

	id, isExtended := frame.ExtendedID()
	if len(p.filter) > 0 && (!isExtended || !contains(p.filter, id.PGN())) {
		return nil
	}

	switch p.output {
	case outputCandump:
		return p.candump.WriteFrame(ctx, frame)
	case outputHex:
		_, err := fmt.Fprintf(p.out, "%s\n", hex.EncodeToString(j1939.MarshalFrame(frame)))
		return err
	case outputBase64:
		_, err := fmt.Fprintf(p.out, "%s\n", base64.StdEncoding.EncodeToString(j1939.MarshalFrame(frame)))
		return err
	}

	info := p.newFrameInfo(frame)
	if p.output == outputJSON {
		return json.NewEncoder(p.out).Encode(info)
	}
	return info.writeText(p.out)
}

func (p *printer) readError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errorCount++
	fmt.Fprintf(p.out, "# Error ReadFrame: %v\n", err)
}

func (p *printer) printNodes() {
	nodes := p.mapper.NodesInUseBySource()
	sources := make([]int, 0, len(nodes))
	for s := range nodes {
		sources = append(sources, int(s))
	}
	sort.Ints(sources)

	fmt.Fprintf(p.out, "# Nodes in use: %v\n", len(nodes))
	for _, s := range sources {
		n := nodes[uint8(s)]
		fmt.Fprintf(p.out, "# node: source: %v, NAME: %v\n", s, blue("%v", n.Name))
	}
}

type frameInfo struct {
	Time   time.Time      `json:"time"`
	ID     string         `json:"id"`
	Header *j1939.Header  `json:"header,omitempty"`
	Data   string         `json:"data"`
	Node   *j1939.Name    `json:"node,omitempty"`
	Values []decodedValue `json:"values,omitempty"`
}

type decodedValue struct {
	Slot  string      `json:"slot"`
	Value *j1939.Slot `json:"value,omitempty"`
	Error string      `json:"error,omitempty"`
}

func (p *printer) newFrameInfo(frame j1939.Frame) frameInfo {
	payload := frame.Payload()
	info := frameInfo{
		Time: frame.Time,
		ID:   fmt.Sprint(frame.ID),
		Data: strings.ToUpper(payload.AsHex()),
	}
	id, ok := frame.ExtendedID()
	if !ok {
		return info
	}
	header := id.Header()
	info.Header = &header

	if p.mapper != nil {
		if node, err := p.mapper.NodeBySource(header.Source); err == nil {
			info.Node = &node.Name
		}
	}
	for _, d := range p.decoders {
		if d.pgn != header.PGN {
			continue
		}
		v := decodedValue{Slot: d.definition.Name()}
		slot, err := payload.DecodeSlot(d.bitOffset, d.definition)
		if err != nil {
			v.Error = err.Error()
		} else {
			v.Value = &slot
		}
		info.Values = append(info.Values, v)
	}
	return info
}

func (i frameInfo) writeText(w io.Writer) error {
	b := strings.Builder{}
	b.WriteString(i.Time.UTC().Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(i.ID)
	if h := i.Header; h != nil {
		fmt.Fprintf(&b, " prio:%v pgn:%v src:%v dst:%v", h.Priority, h.PGN, h.Source, h.Destination)
	}
	fmt.Fprintf(&b, " [%v] %v", len(i.Data)/2, i.Data)
	if i.Node != nil {
		fmt.Fprintf(&b, " node:%v", blue("%v", *i.Node))
	}
	for _, v := range i.Values {
		if v.Value != nil {
			fmt.Fprintf(&b, " %v=%v", v.Slot, green("%v", v.Value))
		} else {
			fmt.Fprintf(&b, " %v=%v", v.Slot, red("%v", v.Error))
		}
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

type slotDecoder struct {
	pgn        uint32
	bitOffset  uint16
	definition j1939.SlotDefinition
}

// parseSlotDecoders parses decoder definitions in form `pgn:bitOffset:slot`
func parseSlotDecoders(raw []string) ([]slotDecoder, error) {
	result := make([]slotDecoder, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid decode definition %q, expected `pgn:bitOffset:slot`", r)
		}
		pgn, err := strconv.ParseUint(parts[0], 10, 18)
		if err != nil {
			return nil, fmt.Errorf("invalid decode definition %q PGN, err: %w", r, err)
		}
		offset, err := strconv.ParseUint(parts[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid decode definition %q bit offset, err: %w", r, err)
		}
		d, err := findSlot(parts[2])
		if err != nil {
			return nil, err
		}
		result = append(result, slotDecoder{pgn: uint32(pgn), bitOffset: uint16(offset), definition: d})
	}
	return result, nil
}

func parsePGNFilter(s string) ([]uint32, error) {
	if s == "" {
		return nil, nil
	}
	result := make([]uint32, 0, 10)
	for _, p := range strings.Split(s, ",") {
		pgn, err := strconv.ParseUint(strings.TrimSpace(p), 10, 18)
		if err != nil {
			return nil, err
		}
		result = append(result, uint32(pgn))
	}
	return result, nil
}

func contains[T comparable](elems []T, v T) bool {
	for _, s := range elems {
		if v == s {
			return true
		}
	}
	return false
}
