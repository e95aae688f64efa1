package constants

// Stage is the canonical name for one phase of the pipeline.
type Stage string

// Stable values (these exact strings appear in logs and reports).
const (
	StageConvert   Stage = "CONVERT"   // HEIC -> PNG conversion
	StageRecognize Stage = "RECOGNIZE" // per-image handwriting OCR
	StageOrganize  Stage = "ORGANIZE"  // batched text consolidation
)

// Fixed artifact names inside the output directory.
const (
	RecognizeLedgerFile = "processed_images.json"
	OrganizeLedgerFile  = "organized_images.json"
	LedgerDBFile        = "ledgers.db"
	OCRResultsFile      = "ocr_results.md"
	OrganizedTextFile   = "organized_text.md"
)

// Output document markers. A section header line is SectionPrefix
// followed by the work-item id; SectionRule separates sections.
const (
	SectionPrefix = "## "
	SectionRule   = "---"

	OCRResultsTitle    = "# OCR Results"
	OrganizedTextTitle = "# Organized Text"
)

// TimestampLayout is the human-readable completion time stored in
// ledger entries.
const TimestampLayout = "2006-01-02 15:04:05"
