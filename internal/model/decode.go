package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The spreadsheet backend returns cells as strings or numbers depending on how
// they were typed in, so listings decode numeric fields from either form.

type looseNumber struct {
	value *float64
}

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse number %q: %w", s, err)
		}
		n.value = &f
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	n.value = &f
	return nil
}

type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = looseString(string(data))
	return nil
}

// UnmarshalJSON accepts quantity, coordinates and id as either strings or numbers.
func (l *Listing) UnmarshalJSON(data []byte) error {
	type plain Listing
	aux := struct {
		*plain
		ID       looseString `json:"id"`
		Quantity looseNumber `json:"quantity"`
		Lat      looseNumber `json:"lat"`
		Lng      looseNumber `json:"lng"`
		Phone    looseString `json:"customerPhone"`
	}{plain: (*plain)(l)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decode listing: %w", err)
	}

	l.ID = string(aux.ID)
	l.CustomerPhone = string(aux.Phone)
	if aux.Quantity.value != nil {
		l.Quantity = *aux.Quantity.value
	}
	l.Lat = aux.Lat.value
	l.Lng = aux.Lng.value
	return nil
}
