/*
Package schema defines the core types for declarative document-type
definitions.

A document type is a named record that controls authorization, validation,
and access assignment for one class of documents. The catalogue of document
types is constructed once per process, treated as read-only, and interpreted
for every proposed document write by core/engine.

# Document-Type Definition

A minimal definition in YAML (loaded by the config package):

	definitions:
	  - name: task
	    typeFilter: simple
	    channels:
	      write: task-writers
	      view: [task-readers, task-writers]
	    propertyValidators:
	      title:    { type: string, required: true, minimumLength: 3 }
	      done:     { type: boolean }
	      dueDate:  { type: date }
	      tags:
	        type: array
	        arrayElementsValidator: { type: string, mustNotBeEmpty: true }

Fields that must be computed per write (dynamic permissions, custom type
predicates, custom validation, lifecycle hooks) are attached in Go through
the same types; the YAML loader only produces static catalogues.

# Validator Types

Every validator node declares exactly one type:

  - string:              Text value, optionally regex-constrained
  - integer:             Whole number
  - float:               Any number (integers accepted)
  - boolean:             true or false
  - date:                ISO 8601 calendar date, no time component
  - datetime:            ISO 8601 date with optional time and zone
  - uuid:                Canonical 8-4-4-4-12 UUID, case-insensitive
  - enum:                One of a set of predefined values
  - attachmentReference: Name of an attachment on the same document
  - object:              Nested map with its own property validators
  - array:               Sequence, optionally with a per-element validator
  - hashtable:           String-keyed map with key/value validators

A node lacking a type is not a validator and is skipped during traversal,
which lets metadata coexist with validators in the same map.

# Constraints

Validator nodes may carry constraints (required, mustNotBeEmpty, immutable,
immutableWhenSet, range limits in inclusive and exclusive variants, length
and size limits, regex patterns, mustEqual, custom validation callbacks).
Most constraint parameters may be given either as a literal or as a function
of the document pair and the item's current and prior values; see Dynamic.

# Resolution

Catalogue order is resolution priority: the first definition whose type
predicate accepts the document claims it. Definitions are expected to be
mutually exclusive by convention; this is not enforced.
*/
package schema
