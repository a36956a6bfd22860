package ebml

import (
	"fmt"
	"strings"
)

// Dump renders an element tree as an indented listing, one element per
// line, for logging and debugging.
func Dump(els []*Element) string {
	var sb strings.Builder
	for _, el := range els {
		dumpElement(&sb, el, 0)
	}
	return sb.String()
}

func dumpElement(sb *strings.Builder, el *Element, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(sb, "%s (0x%x): ", el.Name, el.ID)
	switch el.Type {
	case TypeMaster:
		fmt.Fprintf(sb, "master, %d bytes, %d children\n", el.Size, len(el.Children))
		for _, c := range el.Children {
			dumpElement(sb, c, depth+1)
		}
	case TypeUint:
		fmt.Fprintf(sb, "%d\n", el.Uint())
	case TypeInt:
		fmt.Fprintf(sb, "%d\n", el.Int())
	case TypeFloat:
		fmt.Fprintf(sb, "%g\n", el.Float())
	case TypeString, TypeUnicode:
		fmt.Fprintf(sb, "%q\n", el.Text())
	case TypeDate:
		fmt.Fprintf(sb, "%s\n", el.Date().Format("2006-01-02T15:04:05.000Z07:00"))
	default:
		fmt.Fprintf(sb, "%d bytes\n", len(el.Content))
	}
}
