// Package seed loads policies from YAML seed files and applies them to a
// policy.Service. A seed file plays the part of the producer that populates
// a stage's store, and can be watched so edits are re-applied while the
// stage runs.
//
// A seed file looks like this:
//
//	policies:
//	  - id: 6b3c2f0e-1d4a-4e8b-9c7d-0a1b2c3d4e5f
//	    attributes: [finalized]
//	    text: "secure-boot=on"
//	  - id: a0b1c2d3-e4f5-4a6b-8c9d-0e1f2a3b4c5d
//	    hex: "0a0b0c"
//	  - id: 11111111-2222-4333-8444-555555555555
//	    remove: true
//
// Each entry names its payload with exactly one of text, hex or base64, or
// sets remove to delete the policy. Entries are applied in file order.
package seed
