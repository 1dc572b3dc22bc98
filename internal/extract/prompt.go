package extract

// BuildReportPagePrompt returns the extraction prompt for one page of a
// political-fund disclosure report (政治資金収支報告書).
func BuildReportPagePrompt() string {
	return `You are a data extraction expert for Japanese political fund disclosure reports (政治資金収支報告書).

The image is one page of such a report. Identify the section marker "（そのXX）" printed in the top-right corner of the page and extract the page content into JSON.

IMPORTANT INSTRUCTIONS:
1. Read the "（そのXX）" marker in the top-right corner exactly as printed.
2. Extract tables with their exact rows and columns.
3. Keep numbers as strings exactly as printed, including comma grouping (e.g. "1,234,567").
4. Output ONLY JSON — no explanation, no markdown formatting, no code fences.

Expected output shape:
{
  "page_type": "そのXX",
  "page_title": "page title as printed",
  "structured_data": {
    "field name": "value"
  },
  "tables": [
    {
      "table_id": "table name",
      "table_title": "table title",
      "headers": ["col1", "col2", "col3"],
      "rows": [
        {"col1": "value", "col2": "value", "col3": "value"}
      ]
    }
  ],
  "additional_fields": {}
}

If the page has no tables, use an empty "tables" array. If a field is not present, omit it rather than inventing a value.`
}
