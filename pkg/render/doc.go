/*
Package render turns the application State into a component tree.

Home is the built-in screen. Script evaluates JavaScript render modules with
goja so the screen can be changed and reloaded without restarting the process.
Safely wraps any Renderer with the fallback policy: failures and panics
become a single red Text node instead of an error.
*/
package render
