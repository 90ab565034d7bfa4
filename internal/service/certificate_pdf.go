package service

import (
	"bytes"
	"fmt"
	"os"
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const certificateFont = "DejaVu"

// CertificateData 证书上展示的内容
type CertificateData struct {
	CertificateID string
	FullName      string
	School        string
	Group         string
	TestTitle     string
	ScorePercent  float64
	FinishedAt    time.Time
	Issuer        string
}

func certificateDataFor(attempt *model.Attempt, certID, issuer string) CertificateData {
	d := CertificateData{
		CertificateID: certID,
		FullName:      attempt.FullName,
		School:        attempt.School,
		Group:         attempt.Group,
		Issuer:        issuer,
	}
	if attempt.Test != nil {
		d.TestTitle = attempt.Test.Title
	}
	if attempt.ScorePercent != nil {
		d.ScorePercent = *attempt.ScorePercent
	}
	if attempt.FinishedAt != nil {
		d.FinishedAt = *attempt.FinishedAt
	}
	return d
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// RenderCertificate 生成 PDF；文档日期取交卷时间，相同输入得到相同输出
func RenderCertificate(d CertificateData, cfg config.CertificateConfig) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(d.FinishedAt)
	pdf.SetModificationDate(d.FinishedAt)

	family := "Helvetica"
	text := transliterate
	if fileExists(cfg.FontPath) {
		family = certificateFont
		text = func(s string) string { return s }
		pdf.AddUTF8Font(certificateFont, "", cfg.FontPath)
		bold := cfg.BoldFontPath
		if !fileExists(bold) {
			bold = cfg.FontPath
		}
		pdf.AddUTF8Font(certificateFont, "B", bold)
	}

	pdf.SetTitle(text("Сертификат"), true)
	pdf.SetCreator(text(d.Issuer), true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	w, h := pdf.GetPageSize()
	pdf.SetDrawColor(40, 70, 140)
	pdf.SetLineWidth(1.5)
	pdf.Rect(10, 10, w-20, h-20, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(14, 14, w-28, h-28, "D")

	center := func(y float64, style string, size float64, s string) {
		pdf.SetFont(family, style, size)
		pdf.SetXY(20, y)
		pdf.CellFormat(w-40, size*0.6, text(s), "", 0, "C", false, 0, "")
	}

	center(35, "B", 36, "СЕРТИФИКАТ")
	center(55, "", 16, "подтверждает, что")
	center(72, "B", 28, d.FullName)
	school := d.School
	if d.Group != "" {
		school = fmt.Sprintf("%s, группа %s", d.School, d.Group)
	}
	center(90, "", 14, school)
	center(108, "", 16, "успешно прошёл(ла) тест")
	center(122, "B", 20, fmt.Sprintf("«%s»", d.TestTitle))
	center(140, "", 16, fmt.Sprintf("с результатом %.2f%%", d.ScorePercent))

	pdf.SetFont(family, "", 11)
	pdf.SetXY(25, h-40)
	pdf.CellFormat(120, 6, text("Дата: "+d.FinishedAt.Format("02.01.2006")), "", 0, "L", false, 0, "")
	pdf.SetXY(w-145, h-40)
	pdf.CellFormat(120, 6, text(d.Issuer), "", 0, "R", false, 0, "")
	pdf.SetFont(family, "", 8)
	pdf.SetXY(25, h-30)
	pdf.CellFormat(w-50, 5, "ID: "+d.CertificateID, "", 0, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e", 'ж': "zh",
	'з': "z", 'и': "i", 'й': "i", 'к': "k", 'л': "l", 'м': "m", 'н': "n", 'о': "o",
	'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts",
	'ч': "ch", 'ш': "sh", 'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "iu",
	'я': "ia", '№': "No", '«': "\"", '»': "\"",
}

// transliterate 内置字体不支持西里尔字母时使用
func transliterate(s string) string {
	var b strings.Builder
	for _, r := range s {
		lower := []rune(strings.ToLower(string(r)))[0]
		lat, ok := cyrillicToLatin[lower]
		switch {
		case !ok && r < 128:
			b.WriteRune(r)
		case !ok:
			b.WriteByte('?')
		case lower != r && lat != "":
			b.WriteString(strings.ToUpper(lat[:1]) + lat[1:])
		default:
			b.WriteString(lat)
		}
	}
	return b.String()
}
