// Package domain models PAGASA tropical cyclone bulletin data and the
// extraction that turns bulletin text into structured warning records.
//
// # Data Source
//
// Tropical cyclone bulletins originate from PAGASA, the Philippine weather
// agency, which publishes one PDF per active cyclone every three to six
// hours at https://www.pagasa.dost.gov.ph/. The upstream collector scrapes
// the bulletin page, downloads the newest PDF per cyclone, recovers its
// plain text, and publishes each document as flat JSON to the Kafka source
// topic. PDF conversion quality varies wildly, which is why every extractor
// in this package is an ordered cascade of progressively looser patterns.
//
// # Bulletin Conventions
//
// Issue header:
//
//	"ISSUED AT 5:00 PM, 10 November 2025" near the top of each bulletin.
//	Conversion sometimes glues the words ("ISSUEDAT5:00PM") or drops the
//	comma. Normalized to "2025-11-10 17:00:00"; a capture that resists
//	parsing is kept raw rather than dropped.
//
// Wind signals:
//
//	The Tropical Cyclone Wind Signal (TCWS) scale runs 1-5, keyed to wind
//	bands: 1 gale force (strong winds), 2 storm force, 3 severe tropical
//	storm winds, 4 typhoon force, 5 violent winds of a super typhoon. The
//	signal section lists, per hoisted signal, the locations under it,
//	either as prose ("Signal No. 1: Ilocos Norte, Cagayan...") or as a
//	table. A bulletin may instead declare "no tropical cyclone wind
//	signal", which is a terminal state: all five tag maps stay null.
//
// Rainfall warnings:
//
//	Three severity levels matching the advisory color bands: level 1 red
//	(intense, >30 mm/h), level 2 orange (heavy, 15-30 mm/h), level 3
//	yellow (light to moderate, 7.5-15 mm/h). A rainfall section is
//	attributed to its single most severe stated hazard.
//
// Warning tags:
//
//	Warned locations are bucketed by major island group: Luzon, Visayas,
//	Mindanao, with Other for anything the gazetteer cannot place. Each
//	tag map serializes with exactly those four keys; a group without
//	locations is null, and its value otherwise is the comma-joined
//	location list in first-seen order.
//
// # ID Generation
//
// Envelope IDs are deterministic SHA-256 hashes of
// cyclone|bulletin|source|issued-at. Re-extracting or replaying the same
// bulletin produces the same id, so downstream upserts stay idempotent
// without distributed coordination. See [BulletinID].
package domain
