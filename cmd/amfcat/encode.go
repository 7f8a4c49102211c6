package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	ol "github.com/ossrs/go-oryx-lib/logger"
	"github.com/urfave/cli/v2"

	"github.com/amfcodec/amf/pkg/amf"
)

// jsonValue is the on-disk shape runEncode reads: an explicitly-typed
// JSON tree that maps onto amf.Value without JSON's own type ambiguity
// (is 3 an Integer or a Double? is {} an Object or a Dictionary?).
type jsonValue struct {
	Type    string               `json:"type"`
	Value   json.RawMessage      `json:"value,omitempty"`
	Dense   []jsonValue          `json:"dense,omitempty"`
	Assoc   map[string]jsonValue `json:"assoc,omitempty"`
	Class   string               `json:"class,omitempty"`
	Sealed  map[string]jsonValue `json:"sealed,omitempty"`
	Dynamic map[string]jsonValue `json:"dynamic,omitempty"`
}

func runEncode(c *cli.Context) error {
	var (
		data []byte
		err  error
	)
	if c.Args().Len() < 1 || c.Args().First() == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(c.Args().First())
	}
	if err != nil {
		return err
	}

	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return fmt.Errorf("amfcat encode: parsing input: %w", err)
	}
	val, err := jv.toValue()
	if err != nil {
		return fmt.Errorf("amfcat encode: %w", err)
	}

	opts := amf.DefaultOptions()
	switch c.String("encoding") {
	case "amf0", "":
		opts.ObjectEncoding = amf.ObjectEncodingAMF0
	case "amf3":
		opts.ObjectEncoding = amf.ObjectEncodingAMF3
	default:
		return fmt.Errorf("amfcat encode: unknown encoding %q", c.String("encoding"))
	}

	ol.T(nil, "encoding value as", c.String("encoding"))
	encoded, err := amf.Encode(val, opts)
	if err != nil {
		ol.E(nil, "encode failed, err is", err)
		return err
	}

	out := os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if _, err := out.Write(encoded); err != nil {
		return err
	}
	slog.Info("encode complete", "bytes", len(encoded))
	return nil
}

func (jv jsonValue) toValue() (amf.Value, error) {
	switch jv.Type {
	case "undefined":
		return amf.Undefined{}, nil
	case "null", "":
		return amf.Null{}, nil
	case "bool":
		var b bool
		if err := json.Unmarshal(jv.Value, &b); err != nil {
			return nil, err
		}
		return amf.Bool(b), nil
	case "integer":
		var n int32
		if err := json.Unmarshal(jv.Value, &n); err != nil {
			return nil, err
		}
		return amf.Integer(n), nil
	case "double":
		var f float64
		if err := json.Unmarshal(jv.Value, &f); err != nil {
			return nil, err
		}
		return amf.Double(f), nil
	case "string":
		var s string
		if err := json.Unmarshal(jv.Value, &s); err != nil {
			return nil, err
		}
		return amf.String(s), nil
	case "array":
		arr := amf.NewArray()
		for _, item := range jv.Dense {
			v, err := item.toValue()
			if err != nil {
				return nil, err
			}
			arr.Dense = append(arr.Dense, v)
		}
		for key, item := range jv.Assoc {
			v, err := item.toValue()
			if err != nil {
				return nil, err
			}
			arr.Assoc.Set(key, v)
		}
		return arr, nil
	case "object":
		obj := amf.NewObject()
		obj.ClassName = jv.Class
		for name, item := range jv.Sealed {
			v, err := item.toValue()
			if err != nil {
				return nil, err
			}
			obj.Sealed = append(obj.Sealed, amf.KV{Name: name, Value: v})
		}
		for key, item := range jv.Dynamic {
			v, err := item.toValue()
			if err != nil {
				return nil, err
			}
			obj.Dynamic.Set(key, v)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unknown value type %q", jv.Type)
	}
}
