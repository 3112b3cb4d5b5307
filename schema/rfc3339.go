package schema

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RFC3339 はRFC 3339形式のタイムスタンプコーデック。
//
// 復号は前後の空白を許容し、小数秒はマイクロ秒精度（6桁）へ丸める。
// タイムゾーンオフセットはUTCへ正規化せず、元のオフセットのまま保持する。
// うるう秒表記（秒=60）は翌分の0秒として扱う。
type RFC3339 struct{}

// 各フィールドの値域まで正規表現で縛り、時刻ライブラリの黙った繰り上げに頼らない。
var rfc3339Pattern = regexp.MustCompile(
	`^\s*(\d{4})-(0[1-9]|1[012])-(0[1-9]|[12]\d|3[01])` +
		`T([01]\d|2[0-3]):([0-5]\d):([0-5]\d|60)` +
		`(?:\.(\d+))?` +
		`(Z|[+-](?:[01]\d|2[0-3]):[0-5]\d)\s*$`)

// Decode はRFC 3339形式の文字列から時刻を復元する。
func (RFC3339) Decode(text string) (time.Time, error) {
	m := rfc3339Pattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, &DecodeError{Value: text, Reason: "RFC 3339形式に一致しません"}
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second, _ := strconv.Atoi(m[6])

	nsec := 0
	if m[7] != "" {
		frac := m[7]
		if len(frac) > 6 {
			frac = frac[:6]
		}
		frac += strings.Repeat("0", 6-len(frac))
		micro, _ := strconv.Atoi(frac)
		nsec = micro * 1000
	}

	loc := time.UTC
	if m[8] != "Z" {
		sign := 1
		if m[8][0] == '-' {
			sign = -1
		}
		oh, _ := strconv.Atoi(m[8][1:3])
		om, _ := strconv.Atoi(m[8][4:6])
		loc = time.FixedZone(m[8], sign*(oh*3600+om*60))
	}

	// 2月30日のような暦上存在しない日付を弾く。time.Dateは黙って隣の月へ
	// 繰り上げるため、組み立てた時刻の年月日が入力と一致するかを検査する。
	t := time.Date(year, time.Month(month), day, hour, minute, 0, nsec, loc)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, &DecodeError{Value: text, Reason: "暦上存在しない日付です"}
	}

	// 秒は最後に加算する。60秒は自然に翌分へ繰り上がる。
	return t.Add(time.Duration(second) * time.Second), nil
}

// Encode は時刻をRFC 3339形式でwへ書き出す。
// 小数秒はナノ秒が0でない場合のみ、末尾の0を省いて出力する。
// オフセット0の時刻は"Z"と表記する。
func (c RFC3339) Encode(w io.Writer, t time.Time) error {
	_, err := io.WriteString(w, c.EncodeString(t))
	return err
}

// EncodeString は時刻のRFC 3339表記を返す。
func (RFC3339) EncodeString(t time.Time) string {
	var sb strings.Builder
	sb.WriteString(t.Format("2006-01-02T15:04:05"))
	if ns := t.Nanosecond(); ns != 0 {
		sb.WriteByte('.')
		sb.WriteString(strings.TrimRight(fmt.Sprintf("%09d", ns), "0"))
	}
	_, offset := t.Zone()
	if offset == 0 {
		sb.WriteByte('Z')
	} else {
		sign := byte('+')
		if offset < 0 {
			sign = '-'
			offset = -offset
		}
		sb.WriteByte(sign)
		fmt.Fprintf(&sb, "%02d:%02d", offset/3600, (offset%3600)/60)
	}
	return sb.String()
}

var _ Codec[time.Time] = RFC3339{}
