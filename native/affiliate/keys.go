package affiliate

// ProgramName is the registered identity of the affiliate module.
const ProgramName = "affiliate"

var affiliateInfoSeed = []byte("affiliate_info")

// RecordAddress returns the derived address holding the entry for key.
func (e *Engine) RecordAddress(key [20]byte) [20]byte {
	return e.program.Derive(affiliateInfoSeed, key[:])
}
