package mallctl

import (
	"bufio"
	"fmt"
	"github.com/ValentinKolb/mctl/lib/ctl"
	"io"
	"strings"
)

// --------------------------------------------------------------------------
// Operations shared by the subcommands and exec scripts
// --------------------------------------------------------------------------

// lookup finds the catalog entry for name and the indices it carries
func lookup(name string) (ctl.Entry, []uint, error) {
	e, idx, ok := ctl.Lookup(name)
	if !ok {
		return nil, nil, fmt.Errorf("unknown control %q (see 'mctl ctl list')", name)
	}
	return e, idx, nil
}

func get(c *ctl.Controller, out io.Writer, name string) error {
	e, idx, err := lookup(name)
	if err != nil {
		return err
	}
	v, err := e.ReadValue(c, idx...)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s\n", name, v)
	return nil
}

func set(c *ctl.Controller, out io.Writer, name, value string) error {
	e, idx, err := lookup(name)
	if err != nil {
		return err
	}
	if err := e.WriteValue(c, value, idx...); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: set to %s\n", name, value)
	return nil
}

func swap(c *ctl.Controller, out io.Writer, name, value string) error {
	e, idx, err := lookup(name)
	if err != nil {
		return err
	}
	old, err := e.UpdateValue(c, value, idx...)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s -> %s\n", name, old, value)
	return nil
}

func mib(c *ctl.Controller, out io.Writer, name string) error {
	m, err := c.MibFor(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s\n", name, m)
	return nil
}

func epoch(c *ctl.Controller, out io.Writer) error {
	v, err := ctl.Epoch.Advance(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "epoch: %d\n", v)
	return nil
}

func list(out io.Writer, prefix string) {
	for _, d := range ctl.Catalog() {
		if !strings.HasPrefix(d.Path, prefix) {
			continue
		}
		fmt.Fprintf(out, "%-34s %-13s %s\n", d.Path, d.Type, d.Ops)
	}
}

// --------------------------------------------------------------------------
// Scripts
// --------------------------------------------------------------------------

// execLine runs one script line: get|set|swap|mib|epoch followed by arguments
func execLine(c *ctl.Controller, out io.Writer, line string) error {
	f := strings.Fields(line)
	want := func(n int) error {
		if len(f)-1 != n {
			return fmt.Errorf("%s takes %d argument(s), got %d", f[0], n, len(f)-1)
		}
		return nil
	}
	switch f[0] {
	case "get":
		if err := want(1); err != nil {
			return err
		}
		return get(c, out, f[1])
	case "set":
		if err := want(2); err != nil {
			return err
		}
		return set(c, out, f[1], f[2])
	case "swap":
		if err := want(2); err != nil {
			return err
		}
		return swap(c, out, f[1], f[2])
	case "mib":
		if err := want(1); err != nil {
			return err
		}
		return mib(c, out, f[1])
	case "epoch":
		if err := want(0); err != nil {
			return err
		}
		return epoch(c, out)
	default:
		return fmt.Errorf("unknown command %q", f[0])
	}
}

// execScript runs every line of r against c. Blank lines and lines starting
// with # are skipped. Failing lines are reported on out and do not stop the
// script; the returned error counts them.
func execScript(c *ctl.Controller, r io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(r)
	lineNo, failed, total := 0, 0, 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		total++
		if err := execLine(c, out, line); err != nil {
			failed++
			fmt.Fprintf(out, "line %d: %v\n", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d commands failed", failed, total)
	}
	return nil
}
