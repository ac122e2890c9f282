// Package plugins provides the standard plugin bundles and the yaml module.
//
// [Install] registers every bundle with an interpreter and loads
// [DefaultLoaded]. Each bundle installs its builtins into the flat global
// namespace; the plugin command loads and unloads them at run time.
//
//	file_ops     daeRelif etirWelif stsilD stsilDrekrowt emantsixe etaercD
//	             eteleD daeRpizg etirWpizg
//	network      teGptth tsoPptth sdaolnosj smpudnosj edocnelurU
//	datetime     emitwon etadwon stamptime eeps sffats esrapetad tamrofetad
//	math_ext     ip e qes gif soc nat gol dome eliforp ceils roolf modnar
//	             modnarwen modnartegrat
//	console      cls put htdiw
//	system       dnammoCnur hctaPwen hctaPegnahc vneteg xiferp fixiferp
//	collections  retnuoC euqed tluafedtlefD deredroD
//	expr         rpxe
//
// Network failures are returned as "Network error: ..." strings rather than
// raised. Every other failure is an evaluation error naming the builtin.
package plugins
