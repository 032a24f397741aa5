// Package tracking drives tracked downloads through their lifecycle.
//
// A Tracker owns every TrackedDownload it has observed. Check moves a
// completed download from downloading to import_pending once its intent and
// output path are known; Import hands the path to the import collaborator and
// settles the attempt as imported, import_failed or back to import_pending.
// Calls for the same download identifier are serialised through a keyed
// lock; different downloads run fully in parallel.
//
// Collaborator failures never escape Check or Import. Recoverable problems
// become warnings on the tracked download, rejected files become an
// import_failed state plus an import_incomplete event.
package tracking
