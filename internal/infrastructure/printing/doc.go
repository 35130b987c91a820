// Package printing renders receipts to PDF for thermal roll printers.
//
// This package contains:
// - PDFRenderer interface for rendering HTML to PDF
// - ChromedpRenderer implementation using the Chrome DevTools Protocol
// - ReceiptBuilder which turns a bill into the printable HTML fragment
//
// Example usage:
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{
//	    DefaultTimeout: 15 * time.Second,
//	    NoSandbox:      true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := renderer.Render(ctx, &RenderRequest{
//	    HTML:        html,
//	    PageWidthMM: 80,
//	    PageHeightMM: 297,
//	    Continuous:  true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Generated PDF: %d bytes\n", len(result.PDFData))
package printing
