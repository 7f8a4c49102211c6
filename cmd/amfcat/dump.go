package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	ol "github.com/ossrs/go-oryx-lib/logger"
	"github.com/urfave/cli/v2"

	"github.com/amfcodec/amf/pkg/amf"
	"github.com/amfcodec/amf/pkg/remoting"
)

func runDecode(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("amfcat decode: missing input file")
	}
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	opts := amf.DefaultOptions()
	switch c.String("encoding") {
	case "amf0":
		opts.ObjectEncoding = amf.ObjectEncodingAMF0
	case "amf3":
		opts.ObjectEncoding = amf.ObjectEncodingAMF3
	case "auto", "":
		opts.ObjectEncoding = amf.ObjectEncodingAuto
	default:
		return fmt.Errorf("amfcat decode: unknown encoding %q", c.String("encoding"))
	}

	ol.T(nil, "decoding", len(data), "bytes")
	val, consumed, err := amf.Decode(data, opts)
	if err != nil {
		ol.E(nil, "decode failed, err is", err)
		return err
	}

	dumpValue(os.Stdout, val, 0)
	slog.Info("decode complete", "consumed", consumed, "total", len(data))
	return nil
}

func runRemoting(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("amfcat remoting: missing input file")
	}
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	ol.T(nil, "decoding remoting packet,", len(data), "bytes")
	pkt, err := remoting.DecodePacket(data)
	if err != nil {
		ol.E(nil, "decode failed, err is", err)
		return err
	}

	fmt.Printf("version: %d\n", pkt.Version)
	for _, h := range pkt.Headers {
		fmt.Printf("header %q mustUnderstand=%v\n", h.Name, h.MustUnderstand)
		dumpValue(os.Stdout, h.Value, 1)
	}
	for _, m := range pkt.Messages {
		fmt.Printf("message target=%q response=%q\n", m.TargetURI, m.ResponseURI)
		dumpValue(os.Stdout, m.Value, 1)
	}

	slog.Info("remoting decode complete", "headers", len(pkt.Headers), "messages", len(pkt.Messages))
	return nil
}

func dumpValue(out *os.File, v amf.Value, depth int) {
	indent := strings.Repeat("  ", depth)
	switch val := v.(type) {
	case nil:
		fmt.Fprintf(out, "%snull\n", indent)
	case amf.Undefined:
		fmt.Fprintf(out, "%sundefined\n", indent)
	case amf.Null:
		fmt.Fprintf(out, "%snull\n", indent)
	case amf.Bool:
		fmt.Fprintf(out, "%sbool %v\n", indent, bool(val))
	case amf.Integer:
		fmt.Fprintf(out, "%sinteger %d\n", indent, int32(val))
	case amf.Double:
		fmt.Fprintf(out, "%sdouble %v\n", indent, float64(val))
	case amf.String:
		fmt.Fprintf(out, "%sstring %q\n", indent, string(val))
	case *amf.Date:
		fmt.Fprintf(out, "%sdate\n", indent)
	case *amf.ByteArray:
		fmt.Fprintf(out, "%sbytearray (%d bytes)\n", indent, len(*val))
	case *amf.XmlDoc:
		fmt.Fprintf(out, "%sxmldoc %q\n", indent, string(*val))
	case *amf.Xml:
		fmt.Fprintf(out, "%sxml %q\n", indent, string(*val))
	case *amf.Array:
		fmt.Fprintf(out, "%sarray dense=%d assoc=%d\n", indent, len(val.Dense), val.Assoc.Len())
		for _, item := range val.Dense {
			dumpValue(out, item, depth+1)
		}
		for _, key := range val.Assoc.Keys() {
			item, _ := val.Assoc.Get(key)
			fmt.Fprintf(out, "%s  %s:\n", indent, key)
			dumpValue(out, item, depth+2)
		}
	case *amf.Object:
		fmt.Fprintf(out, "%sobject class=%q externalizable=%v\n", indent, val.ClassName, val.Externalizable)
		for _, kv := range val.Sealed {
			fmt.Fprintf(out, "%s  %s:\n", indent, kv.Name)
			dumpValue(out, kv.Value, depth+2)
		}
		if val.Dynamic != nil {
			for _, key := range val.Dynamic.Keys() {
				item, _ := val.Dynamic.Get(key)
				fmt.Fprintf(out, "%s  %s:\n", indent, key)
				dumpValue(out, item, depth+2)
			}
		}
	case *amf.VectorInt:
		fmt.Fprintf(out, "%svector<int> fixed=%v %v\n", indent, val.Fixed, val.Items)
	case *amf.VectorUint:
		fmt.Fprintf(out, "%svector<uint> fixed=%v %v\n", indent, val.Fixed, val.Items)
	case *amf.VectorDouble:
		fmt.Fprintf(out, "%svector<double> fixed=%v %v\n", indent, val.Fixed, val.Items)
	case *amf.VectorObject:
		fmt.Fprintf(out, "%svector<%s> fixed=%v len=%d\n", indent, val.TypeName, val.Fixed, len(val.Items))
		for _, item := range val.Items {
			dumpValue(out, item, depth+1)
		}
	case *amf.Dictionary:
		fmt.Fprintf(out, "%sdictionary weak=%v len=%d\n", indent, val.WeakKeys, len(val.Entries))
		for _, entry := range val.Entries {
			dumpValue(out, entry.Key, depth+1)
			dumpValue(out, entry.Value, depth+2)
		}
	default:
		fmt.Fprintf(out, "%s%T\n", indent, val)
	}
}
