// Package provenance infers the git repository a release archive was cut
// from.
//
// # Overview
//
// Manifests often fetch tarballs rather than cloning. [Resolver.Resolve]
// maps such an archive URL back to a git URL in two ways:
//
//   - Exact: the URL has the shape of a forge download (GitHub, GitLab,
//     Pagure, GNU and Savannah mirrors, Bitbucket) and one of
//     [DefaultStrategies] rewrites it directly. Nothing is cloned.
//   - Inferred: the file name yields a version and a project name, a
//     known git URL containing the name has exactly one tag containing the
//     version, and a README at that tag is byte-for-byte identical to the
//     one in the archive.
//
// Inference prefers precision over recall: any ambiguity leaves the
// archive unresolved, with a [Reason].
//
// # Usage
//
//	r := provenance.New(gitClient, fetcher, store.GitURLs())
//	res, err := r.Resolve(ctx, "https://download.gnome.org/sources/libgsf/1.14/libgsf-1.14.43.tar.xz")
//	if res.Resolved() {
//	    fmt.Println(res.GitURL)
//	}
package provenance
