// Package formstate holds the values submitted with a reactive update. Values
// are addressed by dotted paths ("address.country", "items.0.sku") and every
// write is tracked so the server can echo mutated state back to the client.
package formstate
