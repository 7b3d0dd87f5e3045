// Package e2e provides end-to-end tests that prepare a corpus from a tabular source and query it
// through the HTTP API.
package e2e

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/pustaka/internal/models"
)

// QueryTestCase is a query and the chunk position that must be returned for it.
type QueryTestCase struct {
	Query            string
	ExpectedPosition int
	Description      string
}

// Corpus holds source rows and query test cases for E2E tests.
type Corpus struct {
	Chunks       []models.Chunk
	TestCases    []QueryTestCase
	TotalChunks  int
	TotalTheses  int
	TotalQueries int
}

type thesis struct {
	title, author, year, topic string
}

var theses = []thesis{
	{"Analisis Banjir Rob di Pesisir Semarang", "Sari Wulandari", "2021", "banjir rob dan penurunan muka tanah"},
	{"Kualitas Air Sungai Citarum", "Budi Santoso", "2019", "kadar nitrat dan fosfat sungai"},
	{"Sistem Irigasi Tetes untuk Cabai", "Rina Kusuma", "2020", "efisiensi irigasi tetes pada lahan kering"},
	{"Deteksi Penyakit Padi dengan CNN", "Agus Pratama", "2022", "klasifikasi citra daun padi"},
	{"Pengelolaan Sampah Plastik Perkotaan", "Dewi Lestari", "2018", "bank sampah dan daur ulang plastik"},
	{"Energi Surya untuk Desa Terpencil", "Hendra Gunawan", "2021", "panel surya dan baterai cadangan"},
	{"Mitigasi Gempa pada Bangunan Sekolah", "Fitri Handayani", "2020", "retrofit struktur beton bertulang"},
	{"Ketahanan Pangan Rumah Tangga Petani", "Yusuf Maulana", "2017", "akses pangan dan pendapatan petani"},
	{"Transportasi Publik Berbasis Rel di Jakarta", "Maya Sari", "2023", "integrasi moda dan waktu tempuh"},
	{"Konservasi Mangrove di Pantai Utara", "Rudi Hartono", "2019", "penanaman mangrove dan abrasi"},
	{"Literasi Digital Siswa Sekolah Dasar", "Lina Marlina", "2022", "penggunaan gawai dalam pembelajaran"},
	{"Pemodelan Curah Hujan dengan LSTM", "Irfan Hakim", "2023", "prediksi curah hujan bulanan"},
	{"Budidaya Ikan Nila Sistem Bioflok", "Nur Aini", "2020", "kualitas air kolam bioflok"},
	{"Efisiensi Energi Gedung Perkantoran", "Andi Wijaya", "2018", "audit energi dan pendingin ruangan"},
	{"Pariwisata Berkelanjutan di Bali", "Putu Ayu", "2021", "daya dukung destinasi wisata"},
	{"Kesehatan Ibu dan Anak di Posyandu", "Siti Rahmah", "2019", "status gizi balita"},
	{"Peta Risiko Longsor Kabupaten Bogor", "Dimas Saputra", "2022", "kemiringan lereng dan tutupan lahan"},
	{"Kompos dari Limbah Pasar", "Wahyu Nugroho", "2017", "rasio karbon nitrogen kompos"},
	{"Sistem Informasi Perpustakaan Kampus", "Ratna Dewi", "2020", "katalog daring dan sirkulasi buku"},
	{"Adaptasi Petani terhadap Kekeringan", "Bayu Firmansyah", "2023", "varietas tahan kering dan embung"},
}

var sections = []struct {
	name     string
	template string
}{
	{"Pendahuluan", "Penelitian %s berangkat dari masalah %s yang terus meningkat setiap tahun."},
	{"Tinjauan Pustaka", "Studi terdahulu tentang %s menunjukkan bahwa %s dipengaruhi oleh faktor lokal."},
	{"Metodologi", "Data untuk %s dikumpulkan melalui survei lapangan yang mengukur %s secara berkala."},
	{"Hasil", "Hasil %s memperlihatkan perubahan nyata pada %s selama periode pengamatan."},
	{"Kesimpulan", "Kesimpulan %s menegaskan perlunya kebijakan yang menangani %s secara terpadu."},
}

// BuildCorpus returns 100 chunks: five sections for each of twenty theses, plus one query per
// chunk whose text is the chunk's own text.
func BuildCorpus() *Corpus {
	chunks := make([]models.Chunk, 0, len(theses)*len(sections))
	for _, th := range theses {
		for _, s := range sections {
			pos := len(chunks)
			chunks = append(chunks, models.Chunk{
				Position: pos,
				Title:    th.title,
				Author:   th.author,
				Year:     th.year,
				URL:      fmt.Sprintf("https://repository.example.ac.id/skripsi/%03d", pos/len(sections)+1),
				Section:  s.name,
				Text:     fmt.Sprintf(s.template, strings.ToLower(th.title), th.topic),
			})
		}
	}
	cases := make([]QueryTestCase, len(chunks))
	for i, c := range chunks {
		cases[i] = QueryTestCase{
			Query:            c.Text,
			ExpectedPosition: c.Position,
			Description:      fmt.Sprintf("%03d %s", c.Position, c.Section),
		}
	}
	return &Corpus{
		Chunks:       chunks,
		TestCases:    cases,
		TotalChunks:  len(chunks),
		TotalTheses:  len(theses),
		TotalQueries: len(cases),
	}
}

var sourceHeader = []string{"judul", "penulis", "tahun", "link", "bagian", "chunk_text"}

func (c *Corpus) rows() [][]string {
	rows := make([][]string, len(c.Chunks))
	for i, ch := range c.Chunks {
		rows[i] = []string{ch.Title, ch.Author, ch.Year, ch.URL, ch.Section, ch.Text}
	}
	return rows
}

// WriteCSV writes the corpus as a chunk CSV with the Indonesian column names.
func (c *Corpus) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(sourceHeader); err != nil {
		return err
	}
	if err := w.WriteAll(c.rows()); err != nil {
		return err
	}
	return f.Close()
}

// WriteXLSX writes the corpus to the first sheet of an Excel workbook.
func (c *Corpus) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	all := append([][]string{sourceHeader}, c.rows()...)
	for r, row := range all {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}
