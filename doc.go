// Package veriseal implements the core of the Veriseal report verification
// service: a fingerprint registry mapping content hashes to stored-file
// records, and an upload/verification service that persists files to a
// remote object store and answers later lookups by fingerprint.
package veriseal
