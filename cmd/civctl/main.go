package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/civgo/civd/pkg/client"
)

var (
	host = flag.String("host", "127.0.0.1", "Daemon host")
	port = flag.Int("port", 8080, "Daemon port")
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
)

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		showHelp()
		return
	}

	c := client.NewClient(*host, *port)

	var err error
	switch args[0] {
	case "status":
		err = cmdStatus(c)
	case "vfo":
		err = cmdVFO(c, args[1:])
	case "mode":
		err = cmdMode(c, args[1:])
	case "split":
		err = cmdSplit(c, args[1:])
	case "freq":
		err = cmdFreq(c, args[1:])
	case "ptt":
		err = cmdPTT(c, args[1:])
	case "func":
		err = cmdFunc(c, args[1:])
	case "level":
		err = cmdLevel(c, args[1:])
	case "log":
		err = cmdLog(c, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		failColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdStatus(c *client.Client) error {
	status, err := c.GetStatus()
	if err != nil {
		return err
	}

	fmt.Printf("Radio:      %s\n", status.Model)
	if status.Connected {
		okColor.Println("Connected:  yes")
	} else {
		failColor.Println("Connected:  no")
		return nil
	}
	fmt.Printf("VFO:        %s (dual watch %s)\n", status.VFO, onOff(status.DualWatch))
	fmt.Printf("Frequency:  %.6f MHz\n", float64(status.Frequency)/1e6)
	fmt.Printf("Mode:       %s (%d Hz)\n", status.Mode, status.WidthHz)
	fmt.Printf("PTT:        %s\n", onOff(status.PTT))
	fmt.Printf("Signal:     %+d dB\n", status.SignalDB)
	dimColor.Printf("Uptime:     %s (civd %s)\n", status.Uptime, status.Version)
	return nil
}

func cmdVFO(c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: vfo <A|B|MAIN|SUB>")
	}
	if err := c.SetVFO(args[0]); err != nil {
		return err
	}
	okColor.Printf("VFO set to %s\n", args[0])
	return nil
}

func cmdMode(c *client.Client, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: mode <AM|AM-N|FM|FM-N|DV> [width_hz]")
	}
	width := 0
	if len(args) == 2 {
		var err error
		if width, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("invalid width: %s", args[1])
		}
	}
	if err := c.SetMode(args[0], width); err != nil {
		return err
	}
	okColor.Printf("Mode set to %s\n", args[0])
	return nil
}

func cmdSplit(c *client.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: split <on|off> <tx_vfo>")
	}
	enabled := args[0] == "on"
	if !enabled && args[0] != "off" {
		return fmt.Errorf("usage: split <on|off> <tx_vfo>")
	}
	if err := c.SetSplit(args[1], enabled); err != nil {
		return err
	}
	okColor.Printf("Split %s (TX on %s)\n", args[0], args[1])
	return nil
}

func cmdFreq(c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: freq <hz|MHz>")
	}

	hz, err := parseFrequency(args[0])
	if err != nil {
		return err
	}
	if err := c.SetFrequency(hz); err != nil {
		return err
	}
	okColor.Printf("Frequency set to %.6f MHz\n", float64(hz)/1e6)
	return nil
}

func cmdPTT(c *client.Client, args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("usage: ptt <on|off>")
	}
	if err := c.SetPTT(args[0] == "on"); err != nil {
		return err
	}
	okColor.Printf("PTT %s\n", args[0])
	return nil
}

func cmdFunc(c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: func <name>")
	}
	on, err := c.GetFunction(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", args[0], onOff(on))
	return nil
}

func cmdLevel(c *client.Client, args []string) error {
	switch len(args) {
	case 1:
		v, err := c.GetLevel(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d\n", args[0], v)
		return nil
	case 2:
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid value: %s", args[1])
		}
		if err := c.SetLevel(args[0], v); err != nil {
			return err
		}
		okColor.Printf("%s set to %d\n", args[0], v)
		return nil
	}
	return fmt.Errorf("usage: level <name> [0-255]")
}

func cmdLog(c *client.Client, args []string) error {
	limit := 20
	if len(args) == 1 {
		var err error
		if limit, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid limit: %s", args[0])
		}
	}

	entries, err := c.GetLog(limit)
	if err != nil {
		return err
	}

	for _, e := range entries {
		ts := e.Timestamp.Format("15:04:05")
		line := fmt.Sprintf("%s  %-10s %-24s %4dms", ts, e.Op, e.Detail, e.DurationMs)
		if e.OK {
			fmt.Println(line)
		} else {
			failColor.Printf("%s  %s\n", line, e.Error)
		}
	}
	return nil
}

// parseFrequency accepts plain Hz or a MHz shorthand. Only values
// written with a decimal point or under 10000 are taken as MHz;
// anything else is Hz as written.
func parseFrequency(s string) (uint64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid frequency: %s", s)
	}
	if strings.Contains(s, ".") || f < 10_000 {
		f *= 1e6
	}
	return uint64(f + 0.5), nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func showHelp() {
	fmt.Println("civctl - ID-5100 Daemon Control Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options] <command> [args]\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -host <addr>    Daemon host (default: 127.0.0.1)")
	fmt.Println("  -port <port>    Daemon port (default: 8080)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  status                    Show radio and daemon state")
	fmt.Println("  vfo <A|B|MAIN|SUB>        Select a VFO")
	fmt.Println("  mode <name> [width]       Set mode (AM, AM-N, FM, FM-N, DV)")
	fmt.Println("  split <on|off> <tx_vfo>   Configure split operation")
	fmt.Println("  freq <hz|MHz>             Set frequency")
	fmt.Println("  ptt <on|off>              Key or unkey the transmitter")
	fmt.Println("  func <name>               Read a function switch")
	fmt.Println("  level <name> [0-255]      Read or set a level (AF, SQL, RFPOWER, ...)")
	fmt.Println("  log [limit]               Show recent operations")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s status\n", os.Args[0])
	fmt.Printf("  %s freq 145.5\n", os.Args[0])
	fmt.Printf("  %s vfo MAIN\n", os.Args[0])
}
