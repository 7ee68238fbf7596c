package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// 配件文件编码
const (
	EncodingUTF8 = "utf-8"
	EncodingGBK  = "gbk"
)

func normalizeEncoding(enc string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf8", "utf-8":
		return EncodingUTF8, nil
	case "gbk", "gb2312", "gb18030":
		return EncodingGBK, nil
	}
	return "", fmt.Errorf("%w: unsupported encoding %q", entity.ErrConfiguration, enc)
}

// ReadPartsCSV 读取无表头配件文件：id,name,unitPrice,stock,reorderPoint,capacity
// 缺省的尾部字段取零值，补货点缺省时用 defaultReorderPoint；同一编号以最后一行为准
func ReadPartsCSV(r io.Reader, encoding string, defaultReorderPoint int) ([]entity.Part, error) {
	enc, err := normalizeEncoding(encoding)
	if err != nil {
		return nil, err
	}
	if enc == EncodingGBK {
		r = transform.NewReader(r, simplifiedchinese.GBK.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		parts []entity.Part
		index = map[string]int{}
		line  int
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", entity.ErrConfiguration, line, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		p, err := parsePartRecord(record, defaultReorderPoint)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if i, ok := index[p.ID]; ok {
			parts[i] = p
			continue
		}
		index[p.ID] = len(parts)
		parts = append(parts, p)
	}
	return parts, nil
}

func parsePartRecord(record []string, defaultReorderPoint int) (entity.Part, error) {
	if len(record) < 2 {
		return entity.Part{}, fmt.Errorf("%w: expected at least id and name, got %d fields", entity.ErrConfiguration, len(record))
	}
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	p := entity.Part{
		ID:           field(0),
		Name:         field(1),
		ReorderPoint: defaultReorderPoint,
	}
	var err error
	if s := field(2); s != "" {
		if p.UnitPrice, err = strconv.ParseFloat(s, 64); err != nil {
			return p, fmt.Errorf("%w: unit price %q", entity.ErrConfiguration, s)
		}
	}
	ints := []struct {
		idx  int
		name string
		dst  *int
	}{
		{3, "stock", &p.Stock},
		{4, "reorder point", &p.ReorderPoint},
		{5, "capacity", &p.Capacity},
	}
	for _, f := range ints {
		s := field(f.idx)
		if s == "" {
			continue
		}
		if *f.dst, err = strconv.Atoi(s); err != nil {
			return p, fmt.Errorf("%w: %s %q", entity.ErrConfiguration, f.name, s)
		}
	}
	return p, p.Validate()
}

// WritePartsCSV 按导入格式导出配件
func WritePartsCSV(w io.Writer, parts []entity.Part, encoding string) error {
	enc, err := normalizeEncoding(encoding)
	if err != nil {
		return err
	}
	var tw *transform.Writer
	if enc == EncodingGBK {
		tw = transform.NewWriter(w, simplifiedchinese.GBK.NewEncoder())
		w = tw
	}

	cw := csv.NewWriter(w)
	for _, p := range parts {
		record := []string{
			p.ID,
			p.Name,
			strconv.FormatFloat(p.UnitPrice, 'f', -1, 64),
			strconv.Itoa(p.Stock),
			strconv.Itoa(p.ReorderPoint),
			strconv.Itoa(p.Capacity),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if tw != nil {
		return tw.Close()
	}
	return nil
}
