package main

import (
	"cow-chat/domain/chat"
	"cow-chat/protocol"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

var (
	welcomeStyle = color.New(color.FgGreen, color.OpBold)
	pushStyle    = color.New(color.FgYellow)
	noticeStyle  = color.New(color.FgCyan)
	errorStyle   = color.New(color.FgRed)
)

// printer serializes writes from the shell and from the push goroutine.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out}
}

func (p *printer) Push(frame protocol.Frame) {
	switch {
	case frame.Kind == protocol.KindWelcome:
		p.println(welcomeStyle.Render(frame.Text))
	case frame.From == "":
		p.println(noticeStyle.Render(frame.Text))
	default:
		p.println(pushStyle.Render(frame.Text))
	}
}

// Reply prints a command result; listings are laid out as a table.
func (p *printer) Reply(frame protocol.Frame) {
	if !frame.OK {
		p.Error(frame.Text)
		return
	}
	if len(frame.Items) == 0 {
		p.println(frame.Text)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, frame.Text)
	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"#", "Cow"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.AppendBulk(lo.Map(frame.Items, func(item string, i int) []string {
		return []string{fmt.Sprint(i + 1), item}
	}))
	table.Render()
}

func (p *printer) Error(text string) {
	p.println(errorStyle.Render(text))
}

// Help prints the local usage of one command.
func (p *printer) Help(name string) {
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	usage, found := lo.Find(chat.Usage, func(u chat.UsageLine) bool {
		return commandName(u.Command) == name
	})
	if !found {
		p.Error(fmt.Sprintf("No help for '%s'", name))
		return
	}
	text := fmt.Sprintf("%s: %s", usage.Command, usage.Description)
	if name == chat.NameQuit {
		names := lo.Keys(aliases)
		slices.Sort(names)
		text += fmt.Sprintf(" (aliases: %s)", strings.Join(names, ", "))
	}
	p.println(text)
}

func (p *printer) println(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, text)
}
