// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package n_bits

import (
	"encoding/json"
	"slices"
	"strconv"
	"testing"
)

func TestBitSet(t *testing.T) {
	for _, l := range []int{0, 1, 60, 63, 64, 65, 100, 127, 128, 129, 64*3 + 1} {
		t.Run(strconv.Itoa(l), func(t *testing.T) {
			b := &BitSet{}
			b.Resize(l)
			if b.Len != l {
				t.Fatalf("want=%d got=%d", l, b.Len)
			}
			var want []int
			for _, i := range []int{0, 10, 50, 63, 64, 99, 128} {
				if i < l {
					b.Set(i)
					want = append(want, i)
				}
			}
			if got := int(b.Effective()); got != len(want) {
				t.Errorf("Effective: want=%d got=%d", len(want), got)
			}
			got := slices.Collect(b.Indexes())
			if !slices.Equal(got, want) {
				t.Errorf("Indexes: want=%v got=%v", want, got)
			}
			for i := range l {
				if b.Get(i) != slices.Contains(want, i) {
					t.Errorf("bit %d: want=%t", i, !b.Get(i))
				}
			}
			var first []int
			for i := range b.Indexes() {
				if len(first) == 2 {
					break
				}
				first = append(first, i)
			}
			if n := min(2, len(want)); !slices.Equal(first, want[:n]) {
				t.Errorf("early stop: want=%v got=%v", want[:n], first)
			}

			d, err := json.Marshal(b)
			if err != nil {
				t.Fatal(err)
			}
			var decoded BitSet
			if err := json.Unmarshal(d, &decoded); err != nil {
				t.Fatal(err)
			}
			if decoded.Len != b.Len {
				t.Fatalf("want=%d got=%d\nb:   %+v\ngot: %+v", b.Len, decoded.Len, b, &decoded)
			}
			for i := range b.Len {
				if b.Get(i) != decoded.Get(i) {
					t.Errorf("bit %d mismatch", i)
				}
			}
		})
	}
}

func TestBitSet_Resize(t *testing.T) {
	b := &BitSet{}
	b.Resize(100)
	b.Set(3)
	b.Set(70)
	b.Resize(200)
	if !b.Get(3) || !b.Get(70) || b.Effective() != 2 {
		t.Fatalf("grow lost bits: %+v", b)
	}
	b.Resize(10)
	if !b.Get(3) || b.Effective() != 1 {
		t.Fatalf("shrink kept bits: %+v", b)
	}
}

func TestBitSet_Union(t *testing.T) {
	a := &BitSet{}
	a.Resize(130)
	a.Set(1)
	b := &BitSet{}
	b.Resize(130)
	b.Set(1)
	b.Set(129)
	if err := a.Union(b); err != nil {
		t.Fatal(err)
	}
	if !a.Get(1) || !a.Get(129) || a.Effective() != 2 {
		t.Fatalf("unexpected %+v", a)
	}
	c := &BitSet{}
	c.Resize(10)
	if a.Union(c) == nil {
		t.Fatal("expected error")
	}
}

func TestBitSet_UnmarshalJSON_Invalid(t *testing.T) {
	for i, s := range []string{`1`, `"!!"`, `"AA"`, `"QAAAAAAAAAA"`} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			var b BitSet
			if err := json.Unmarshal([]byte(s), &b); err == nil {
				t.Fatalf("%s: expected error", s)
			}
		})
	}
}

func TestCountSet(t *testing.T) {
	c := CountSet{Counts: []uint8{1, 2, 3, 4, 5}}
	c.Resize(10)
	if len(c.Counts) != 10 {
		t.Fatalf("want=10 got=%d", len(c.Counts))
	}
	if c.Get(4) != 5 || c.Get(5) != 0 {
		t.Fatalf("Resize lost counts: %v", c.Counts)
	}
	for range 300 {
		c.Add(9)
	}
	if c.Get(9) != 255 {
		t.Errorf("want=255 got=%d", c.Get(9))
	}
	if c.Effective() != 6 {
		t.Errorf("want=6 got=%d", c.Effective())
	}

	o := CountSet{Counts: make([]uint8, 10)}
	o.Add(0)
	o.Add(8)
	o.Add(9)
	if err := c.Merge(&o); err != nil {
		t.Fatal(err)
	}
	if c.Get(0) != 2 || c.Get(8) != 1 || c.Get(9) != 255 {
		t.Errorf("Merge: %v", c.Counts)
	}
	if c.Merge(&CountSet{}) == nil {
		t.Error("expected error")
	}

	for _, counts := range [][]uint8{nil, {1, 2, 3}} {
		c = CountSet{Counts: counts}
		b, err := json.Marshal(&c)
		if err != nil {
			t.Fatal(err)
		}
		got := CountSet{}
		if err = json.Unmarshal(b, &got); err != nil {
			t.Fatal(err)
		}
		if len(got.Counts) != len(counts) {
			t.Fatalf("want=%v got=%v", counts, got.Counts)
		}
		for i := range counts {
			if got.Counts[i] != counts[i] {
				t.Fatalf("want=%v got=%v", counts, got.Counts)
			}
		}
	}
}
