package schema

import (
	"errors"
	"testing"
	"time"
)

func TestRFC3339_Decode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "UTCの時刻",
			input: "2005-07-31T12:29:29Z",
			want:  time.Date(2005, 7, 31, 12, 29, 29, 0, time.UTC),
		},
		{
			name:  "小数秒は保持される",
			input: "2003-12-13T18:30:02.25Z",
			want:  time.Date(2003, 12, 13, 18, 30, 2, 250_000_000, time.UTC),
		},
		{
			name:  "マイクロ秒より細かい桁は切り捨てられる",
			input: "2003-12-13T18:30:02.1234567Z",
			want:  time.Date(2003, 12, 13, 18, 30, 2, 123_456_000, time.UTC),
		},
		{
			name:  "正のオフセット",
			input: "2013-08-10T15:27:04+09:00",
			want:  time.Date(2013, 8, 10, 15, 27, 4, 0, time.FixedZone("+09:00", 9*3600)),
		},
		{
			name:  "負のオフセット",
			input: "2003-12-13T18:30:02-05:00",
			want:  time.Date(2003, 12, 13, 18, 30, 2, 0, time.FixedZone("-05:00", -5*3600)),
		},
		{
			name:  "前後の空白は無視される",
			input: "  2005-07-31T12:29:29Z\n",
			want:  time.Date(2005, 7, 31, 12, 29, 29, 0, time.UTC),
		},
		{
			name:  "うるう秒表記は翌分へ繰り上がる",
			input: "2012-06-30T23:59:60Z",
			want:  time.Date(2012, 7, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RFC3339{}.Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Decode(%q) = %v, want %v", tt.input, got, tt.want)
			}
			// オフセットが元の表記のまま保持されていること
			_, wantOffset := tt.want.Zone()
			_, gotOffset := got.Zone()
			if gotOffset != wantOffset {
				t.Errorf("Decode(%q) offset = %d, want %d", tt.input, gotOffset, wantOffset)
			}
		})
	}
}

func TestRFC3339_DecodeInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "暦上存在しない日付", input: "2015-02-30T12:00:00Z"},
		{name: "13月", input: "2015-13-01T12:00:00Z"},
		{name: "32日", input: "2015-01-32T12:00:00Z"},
		{name: "24時", input: "2015-01-01T24:00:00Z"},
		{name: "61秒", input: "2015-01-01T00:00:61Z"},
		{name: "日付のみ", input: "2015-01-01"},
		{name: "オフセットなし", input: "2015-01-01T00:00:00"},
		{name: "空文字列", input: ""},
		{name: "時刻でない文字列", input: "not a timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RFC3339{}.Decode(tt.input)
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Decode(%q) error = %v, want *DecodeError", tt.input, err)
			}
		})
	}
}

func TestRFC3339_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "UTC", input: "2005-07-31T12:29:29Z"},
		{name: "小数秒", input: "2003-12-13T18:30:02.25Z"},
		{name: "正のオフセット", input: "2013-08-10T15:27:04+09:00"},
		{name: "負のオフセット", input: "2003-12-13T18:30:02-05:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := RFC3339{}.Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", tt.input, err)
			}
			if got := (RFC3339{}).EncodeString(decoded); got != tt.input {
				t.Errorf("EncodeString(Decode(%q)) = %q", tt.input, got)
			}
		})
	}
}

func TestRFC3339_EncodeString(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  string
	}{
		{
			name:  "ナノ秒0は小数部を出力しない",
			input: time.Date(2005, 7, 31, 12, 29, 29, 0, time.UTC),
			want:  "2005-07-31T12:29:29Z",
		},
		{
			name:  "小数部の末尾の0は省かれる",
			input: time.Date(2003, 12, 13, 18, 30, 2, 100_000_000, time.UTC),
			want:  "2003-12-13T18:30:02.1Z",
		},
		{
			name:  "オフセットは±HH:MMで表記される",
			input: time.Date(2013, 8, 10, 15, 27, 4, 0, time.FixedZone("JST", 9*3600)),
			want:  "2013-08-10T15:27:04+09:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (RFC3339{}).EncodeString(tt.input); got != tt.want {
				t.Errorf("EncodeString() = %q, want %q", got, tt.want)
			}
		})
	}
}
