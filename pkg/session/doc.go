/*
Package session implements session management and persistence orchestration.

It keeps funnel runs as persisted snapshots so that stateless hosts (the HTTP
API, the MCP server) can apply intents across requests. Access to one session is
serialized with a reference-counted local mutex and, optionally, a distributed
lock shared by every replica.
*/
package session
